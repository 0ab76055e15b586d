package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int `koanf:"port"`
	} `koanf:"server"`

	Auth struct {
		// JWTSecret verifies the platform-issued actor tokens. Token
		// issuance belongs to the auth service, not this backend.
		JWTSecret string `koanf:"jwt_secret"`
	} `koanf:"auth"`

	Notify struct {
		Endpoint   string `koanf:"endpoint"`
		Token      string `koanf:"token"`
		MaxWorkers int    `koanf:"max_workers"`
		MaxRetries int    `koanf:"max_retries"`
	} `koanf:"notify"`

	RateLimit struct {
		PerMinute int `koanf:"per_minute"`
	} `koanf:"rate_limit"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"server.port":           8090,
		"notify.max_workers":    10,
		"notify.max_retries":    8,
		"rate_limit.per_minute": 60,
		"log.level":             "info",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./wellnest.toml", "$HOME/.wellnest.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix WELLNEST_
	k.Load(env.Provider("WELLNEST_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "WELLNEST_")), "_", ".", -1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# WellNest Configuration

[server]
port = 8090

[auth]
jwt_secret = "change-me"

[notify]
# Where chat negotiation events are delivered. Leave empty to drop them.
endpoint = ""
token = ""
max_workers = 10
max_retries = 8

[rate_limit]
per_minute = 60

[log]
level = "info"
`

	if err := os.WriteFile(configPath, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
