package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/wellnest/internal/actors"
	"github.com/wellnest/internal/api/auth"
	apimiddleware "github.com/wellnest/internal/api/middleware"
	"github.com/wellnest/internal/chat"
	"github.com/wellnest/internal/chatreq"
	"github.com/wellnest/internal/config"
	"github.com/wellnest/internal/profile"
)

// Server represents the API server
type Server struct {
	echo      *echo.Echo
	port      int
	cfg       *config.Config
	manager   *chatreq.Manager
	chats     chat.Store
	directory actors.Directory
	profiles  profile.Store
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, manager *chatreq.Manager, chats chat.Store, directory actors.Directory, profiles profile.Store) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:      e,
		port:      cfg.Server.Port,
		cfg:       cfg,
		manager:   manager,
		chats:     chats,
		directory: directory,
		profiles:  profiles,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// API v1 group, authenticated actor required throughout
	v1 := s.echo.Group("/api/v1")
	v1.Use(auth.RequireActor(s.cfg.Auth.JWTSecret))

	rateLimited := apimiddleware.RateLimitByActor(s.cfg.RateLimit.PerMinute)

	// Chat request negotiation
	v1.POST("/chat-requests", s.createChatRequest, rateLimited)
	v1.POST("/chat-requests/:id/respond", s.respondChatRequest, rateLimited)
	v1.GET("/chat-requests/:id", s.getChatRequest)
	v1.GET("/chat-requests", s.listChatRequests)

	// Materialized chats
	v1.GET("/chats/:id", s.getChat)
	v1.GET("/chats", s.listChats)

	// Affinity preview
	v1.GET("/affinity/:kind/:id", s.getAffinity)
}

// Start begins the API server
func (s *Server) Start() error {
	// Start server in a goroutine
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
