// Package api exposes the analysis engine over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/analyze"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/rules"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/store"
)

// Pinger is a minimal health-check interface satisfied by the Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration.
type Config struct {
	Host string
	Port int
	// JWTSecret enables bearer-token auth on /api/v1 routes when set.
	// An empty secret leaves the API open (development mode).
	JWTSecret string
	Version   string
}

// Server is the HTTP front end. It owns no analysis logic: every request
// is delegated to the analyzer, the rule repository, or the history store.
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	analyzer *analyze.Analyzer
	rules    rules.Repository
	history  *store.HistoryStore
	kb       Pinger // optional knowledge-base health check
	logger   *slog.Logger
}

// NewServer wires the handlers. history and kb may be nil.
func NewServer(cfg Config, analyzer *analyze.Analyzer, repo rules.Repository, history *store.HistoryStore, kb Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:   http.NewServeMux(),
		version:  cfg.Version,
		analyzer: analyzer,
		rules:    repo,
		history:  history,
		kb:       kb,
		logger:   logger,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.routes(cfg.JWTSecret),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // analyses can take a while
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// routes registers handlers and wraps the API subtree in auth middleware.
func (s *Server) routes(jwtSecret string) http.Handler {
	s.router.HandleFunc("GET /health", s.handleHealth)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/analyze", s.handleAnalyze)
	api.HandleFunc("GET /api/v1/analyses", s.handleListAnalyses)
	api.HandleFunc("GET /api/v1/analyses/{id}", s.handleGetAnalysis)
	api.HandleFunc("GET /api/v1/rules", s.handleListRules)
	api.HandleFunc("POST /api/v1/rules", s.handleAddRule)
	api.HandleFunc("DELETE /api/v1/rules/{id}", s.handleDeleteRule)
	api.HandleFunc("GET /api/v1/formats", s.handleFormats)

	var apiHandler http.Handler = api
	if jwtSecret != "" {
		apiHandler = RequireToken(jwtSecret)(api)
	} else {
		s.logger.Warn("no JWT secret configured; API is unauthenticated")
	}
	s.router.Handle("/api/v1/", apiHandler)

	return s.router
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
