// Package server exposes a loaded data root as a read-only JSON API.
//
// Routes:
//
//	GET /healthz
//	GET /api/policies?q=&city=&status=&benefit=&tag=&limit=
//	GET /api/policies/{id}
//	GET /api/parks
//	GET /api/parks/{id}
//	GET /api/cities
//	GET /api/tags
//	GET /api/benefits
//	GET /api/stats
//	GET /api/stats/cities
//
// Every /api response carries the snapshot fingerprint as its ETag, and a
// matching If-None-Match yields 304 Not Modified.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opcmap/policymap/pkg/errors"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server is the HTTP API.
type Server struct {
	source Source
	logger *log.Logger
	router chi.Router
}

// New creates a server reading from source. A nil logger falls back to
// log.Default().
func New(source Source, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{source: source, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(serverHeader)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/policies", s.handlePolicies)
		r.Get("/policies/{id}", s.handlePolicy)
		r.Get("/parks", s.handleParks)
		r.Get("/parks/{id}", s.handlePark)
		r.Get("/cities", s.handleCities)
		r.Get("/tags", s.handleTags)
		r.Get("/benefits", s.handleBenefits)
		r.Get("/stats", s.handleStats)
		r.Get("/stats/cities", s.handleCityStats)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s", r.URL.Path))
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Serving API", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
