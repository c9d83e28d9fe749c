package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	maxUpload  int64
	logger     *slog.Logger

	// Services
	extractionService driving.ExtractionService
	pluginService     driving.PluginService

	// Infrastructure
	tokens driven.TokenVerifier // nil disables auth
	checks map[string]Pinger    // readiness checks by name
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	MaxUploadBytes int64
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8000,
		Version:        "dev",
		MaxUploadBytes: 100 << 20,
	}
}

// NewServer creates a new HTTP server. tokens may be nil to serve without
// authentication; checks are consulted by /ready.
func NewServer(
	cfg Config,
	extractionService driving.ExtractionService,
	pluginService driving.PluginService,
	tokens driven.TokenVerifier,
	checks map[string]Pinger,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}

	s := &Server{
		router:            http.NewServeMux(),
		version:           cfg.Version,
		maxUpload:         cfg.MaxUploadBytes,
		logger:            logger.With("component", "http"),
		extractionService: extractionService,
		pluginService:     pluginService,
		tokens:            tokens,
		checks:            checks,
	}

	s.setupRoutes()

	var handler http.Handler = s.router
	if len(cfg.AllowedOrigins) > 0 {
		handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)
	}
	handler = NewLoggingMiddleware(s.logger).Handler(handler)
	s.handler = NewRecoveryMiddleware(s.logger).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.tokens)
	extract := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireScope(domain.ScopeExtract)(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireScope(domain.ScopeAdmin)(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /info", s.handleInfo)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwagger)

	// Extraction endpoints
	s.router.Handle("POST /api/v1/extract", extract(s.handleExtract))
	s.router.Handle("POST /api/v1/batch", extract(s.handleBatch))
	s.router.Handle("POST /api/v1/chunk", extract(s.handleChunk))
	s.router.Handle("GET /api/v1/formats", extract(s.handleFormats))

	// Cache endpoints
	s.router.Handle("GET /api/v1/cache/stats", extract(s.handleCacheStats))
	s.router.Handle("DELETE /api/v1/cache", admin(s.handleCacheClear))

	// Plugin endpoints
	s.router.Handle("GET /api/v1/plugins", extract(s.handlePlugins))
	s.router.Handle("GET /api/v1/embedding", extract(s.handleEmbeddingStatus))
	s.router.Handle("PUT /api/v1/embedding", admin(s.handleConfigureEmbedding))
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
