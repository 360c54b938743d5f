// Package server exposes facility search over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/snfsearch/internal/search"
)

// Reloader rebuilds the search engine from its inputs.
type Reloader func(ctx context.Context) (*search.Engine, error)

// Config holds configuration for the server.
type Config struct {
	Engine *search.Engine
	Port   int
	Logger *slog.Logger

	// Watch reloads the engine through Reload when any of WatchFiles changes.
	Watch      bool
	WatchFiles []string
	Reload     Reloader
}

// Server answers facility queries. The engine is swapped atomically on
// reload, so requests in flight finish against the data they started with.
type Server struct {
	engine     atomic.Pointer[search.Engine]
	port       int
	watch      bool
	watchFiles []string
	reload     Reloader
	logger     *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		port:       cfg.Port,
		watch:      cfg.Watch,
		watchFiles: cfg.WatchFiles,
		reload:     cfg.Reload,
		logger:     logger,
	}
	s.engine.Store(cfg.Engine)
	return s
}

// Engine returns the engine currently serving requests.
func (s *Server) Engine() *search.Engine {
	return s.engine.Load()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/healthz", s.handleHealth)
	r.Get("/facilities", s.handleFacilities)
	r.Get("/facilities/{zip}", s.handleFacilities)
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchInputs(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Reload rebuilds the engine and swaps it in. On failure the current engine
// keeps serving.
func (s *Server) Reload(ctx context.Context) error {
	if s.reload == nil {
		return errors.New("reload not configured")
	}
	engine, err := s.reload(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload data: %w", err)
	}
	s.engine.Store(engine)
	s.logger.Info("data reloaded", "providers", engine.Dataset().Providers.Len())
	return nil
}
