package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alkime/speakimage/internal/config"
	"github.com/alkime/speakimage/internal/metrics"
	"github.com/alkime/speakimage/internal/session"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators shared by every session's controller.
type Deps struct {
	Transcriber session.Transcriber
	Illustrator session.Illustrator
	Store       session.ImageStore
}

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	logger   *slog.Logger
	router   *gin.Engine
	sessions *Registry
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	// Set Gin mode based on environment
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.Default()

	// Configure proxy trust for production (Fly.io)
	if cfg.Env == config.EnvProduction {
		router.TrustedPlatform = gin.PlatformFlyIO
		logger.Debug("Configured trusted platform", "platform", "fly.io")
	}

	newController := func(id string, notifier session.Notifier) *session.Controller {
		return session.NewController(
			deps.Transcriber,
			deps.Illustrator,
			deps.Store,
			session.Notifiers{notifier, metrics.SessionNotifier{}},
			logger.With("session", id),
		)
	}

	server := &Server{
		config:   cfg,
		logger:   logger,
		router:   router,
		sessions: NewRegistry(newController, cfg.SessionTTL, logger),
	}

	// Setup middleware and routes
	router.Use(metrics.Instrument())
	setupSecurityMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Router returns the HTTP handler, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Sessions returns the session registry.
func (s *Server) Sessions() *Registry {
	return s.sessions
}

// Run starts the HTTP server and the idle session sweeper. It returns when
// ctx is cancelled and in-flight requests have drained.
func Run(ctx context.Context, s *Server) error {
	go s.sessions.Sweep(ctx, sweepInterval(s.config.SessionTTL))

	httpServer := &http.Server{ //nolint:exhaustruct // defaults are fine for the rest
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "port", s.config.Port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api/session")
	{
		api.GET("", s.handleGetSession)
		api.POST("/audio", s.handleSubmitAudio)
		api.POST("/image", s.handleRequestImage)
		api.GET("/image", s.handleGetImage)
		api.POST("/reset", s.handleReset)
	}

	// Embedded control panel. NoRoute only triggers when nothing above matched.
	s.router.NoRoute(static.Serve("/", webFileSystem()))
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "speakimage",
	})
}

func sweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/4, time.Second)
}
