// Package server hosts the lookup contract over HTTP.
package server

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/estlookup/internal/model"
)

// Resolver answers parsed query parameters
type Resolver interface {
	ResolveQuery(ctx context.Context, q url.Values) (model.Result, error)
	Sources() []model.Source
}

// Server wires the resolver behind a chi router
type Server struct {
	cfg      model.ServerConfig
	resolver Resolver
	metrics  *Metrics
	router   chi.Router
}

// New creates a server; metrics may be nil to disable /metrics
func New(cfg model.ServerConfig, resolver Resolver, metrics *Metrics) *Server {
	s := &Server{
		cfg:      cfg,
		resolver: resolver,
		metrics:  metrics,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(openCORS)
	r.Use(recoverJSON)

	path := s.cfg.Path
	if path == "" {
		path = "/api/lookup"
	}
	r.Get(path, s.handleLookup)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return r
}

// ListenAndServe serves until ctx is cancelled, then drains for up to 10s
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server listening", zap.String("addr", s.cfg.Addr), zap.String("path", s.cfg.Path))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if eris.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server: shutdown")
	}
	zap.L().Info("server stopped")
	return nil
}
