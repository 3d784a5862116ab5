// Package server assembles the HTTP API: routing, middleware, and server
// lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyoungcy/challengemarket/internal/domain"
	"github.com/alanyoungcy/challengemarket/internal/server/handler"
	"github.com/alanyoungcy/challengemarket/internal/server/middleware"
	"github.com/alanyoungcy/challengemarket/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	AdminAPIKey string
	RateLimit   int
	RateWindow  time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health     *handler.HealthHandler
	Challenges *handler.ChallengeHandler
	Bets       *handler.BetHandler
	Admin      *handler.AdminHandler
}

// Server is the HTTP + WebSocket API server for the challenge market.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux
// and the middleware chain wired up. limiter may be nil to disable rate
// limiting; wsHub may be nil to disable the WebSocket endpoint.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Challenge endpoints.
	mux.HandleFunc("GET /api/challenges", handlers.Challenges.ListChallenges)
	mux.HandleFunc("POST /api/challenges", handlers.Challenges.CreateChallenge)
	mux.HandleFunc("GET /api/challenges/{id}", handlers.Challenges.GetChallenge)

	// Bet endpoints.
	mux.HandleFunc("POST /api/challenges/{id}/bets", handlers.Bets.SubmitBet)
	mux.HandleFunc("GET /api/challenges/{id}/bets", handlers.Bets.ListBets)
	mux.HandleFunc("GET /api/challenges/{id}/summary", handlers.Bets.GetSummary)

	// Admin endpoints, gated by API key auth.
	adminAuth := middleware.Auth(cfg.AdminAPIKey)
	mux.Handle("POST /api/admin/archive", adminAuth(http.HandlerFunc(handlers.Admin.TriggerArchive)))

	// Prometheus metrics.
	mux.Handle("GET /metrics", promhttp.Handler())

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
