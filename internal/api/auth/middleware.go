package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/wellnest/internal/actors"
)

// ContextKey represents keys for context values
type ContextKey string

const (
	// ActorContextKey holds the authenticated actors.Ref.
	ActorContextKey ContextKey = "actor"
)

// ActorClaims are the claims the platform auth service puts on actor
// tokens. This backend only verifies and reads them; issuance and session
// management live in the auth service.
type ActorClaims struct {
	ActorID   string `json:"actor_id"`
	ActorKind string `json:"actor_kind"`
	jwt.RegisteredClaims
}

// RequireActor extracts and validates the bearer token, placing the
// authenticated actor reference on the request context.
func RequireActor(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			ref, err := validateToken(tokenParts[1], secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(string(ActorContextKey), ref)
			return next(c)
		}
	}
}

// ActorFromContext returns the authenticated actor set by RequireActor.
func ActorFromContext(c echo.Context) (actors.Ref, bool) {
	ref, ok := c.Get(string(ActorContextKey)).(actors.Ref)
	return ref, ok
}

func validateToken(tokenString, secret string) (actors.Ref, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		if err == nil {
			err = fmt.Errorf("invalid token")
		}
		return actors.Ref{}, err
	}

	claims, ok := token.Claims.(*ActorClaims)
	if !ok {
		return actors.Ref{}, fmt.Errorf("invalid token claims")
	}

	kind, err := actors.ParseKind(claims.ActorKind)
	if err != nil {
		return actors.Ref{}, err
	}
	if strings.TrimSpace(claims.ActorID) == "" {
		return actors.Ref{}, fmt.Errorf("missing actor id claim")
	}

	return actors.Ref{Kind: kind, ID: claims.ActorID}, nil
}
