// Package server assembles the routes, the guard chain, and the HTTP
// server. The chain order is the single place where the defense ordering is
// decided.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wazuhgate/internal/auth"
	"wazuhgate/internal/config"
	"wazuhgate/internal/forwarder"
	"wazuhgate/internal/handlers"
	"wazuhgate/internal/logger"
	"wazuhgate/internal/middleware"
	"wazuhgate/internal/ratelimit"
	"wazuhgate/internal/respond"
)

// Server holds the HTTP server and the per-process guard state. The rate
// limiter and authenticator are constructor-injected, not process-wide
// singletons, so tests can substitute isolated instances.
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	limiter    *ratelimit.Limiter
}

// New builds the server. apiKey must already be resolved; an empty key is a
// fatal construction error.
func New(cfg *config.Config, apiKey string) (*Server, error) {
	authn, err := auth.New(apiKey)
	if err != nil {
		return nil, err
	}

	fwd := forwarder.New(cfg.SocketPath, cfg.DefaultDecoder)
	ingest := handlers.NewIngestHandler(fwd)
	health := handlers.NewHealthHandler(fwd)
	limiter := ratelimit.New(cfg.RateLimitPerMinute, time.Minute)

	mux := http.NewServeMux()

	// Inner, route-specific stages: rate limit (batch only), payload
	// ceiling, authentication.
	mux.Handle("POST /ingest", middleware.Chain(
		http.HandlerFunc(ingest.Ingest),
		middleware.PayloadSizeLimit(cfg.MaxBodySingle),
		authn.Require,
	))
	mux.Handle("POST /batch", middleware.Chain(
		http.HandlerFunc(ingest.Batch),
		middleware.RateLimit(limiter),
		middleware.PayloadSizeLimit(cfg.MaxBodyBatch),
		authn.Require,
	))
	mux.Handle("GET /health", middleware.Chain(
		http.HandlerFunc(health.Detailed),
		middleware.PayloadSizeLimit(cfg.MaxBodyBatch),
		authn.Require,
	))

	// Unauthenticated orchestrator probes and metrics
	mux.HandleFunc("GET /health/live", health.Live)
	mux.HandleFunc("GET /health/ready", health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, http.StatusNotFound, "Resource not found")
	})

	// Outer guard chain, outermost first: panic boundary, correlation id,
	// request logging with the slow-request warning, hard timeout.
	handler := middleware.Chain(mux,
		middleware.Recovery,
		middleware.RequestID,
		middleware.Logging(time.Duration(cfg.SlowRequestThreshold)*time.Second),
		middleware.Timeout(time.Duration(cfg.RequestTimeout)*time.Second),
	)

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{cfg: cfg, httpServer: httpServer, limiter: limiter}, nil
}

// Handler exposes the fully wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server. Blocks until the context is cancelled or the
// listener fails; on cancel the server shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.limiter.StartCleanup(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	log := logger.WithComponent("server")
	log.Info().
		Str("addr", s.httpServer.Addr).
		Str("socket_path", s.cfg.SocketPath).
		Msg("listening")

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and drains in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}
