package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/semaphore"

	"github.com/aryankumar/batchexec/internal/config"
	"github.com/aryankumar/batchexec/internal/executor"
	"github.com/aryankumar/batchexec/internal/response"
	"github.com/aryankumar/batchexec/internal/util"
)

const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 60 * time.Second
)

// Server wraps the chi router and the executors it drives.
type Server struct {
	router  *chi.Mux
	shared  *executor.Shared
	batches *semaphore.Weighted
	memory  *memoryStore
	cfg     config.Config
	logger  *slog.Logger
}

// NewServer creates and configures a new HTTP server. The server takes
// ownership of shared and closes it on shutdown.
func NewServer(cfg config.Config, shared *executor.Shared, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	maxBatches := cfg.Server.MaxConcurrentBatches
	if maxBatches <= 0 {
		maxBatches = config.DefaultMaxConcurrentBatches
	}

	srv := &Server{
		router:  chi.NewRouter(),
		shared:  shared,
		batches: semaphore.NewWeighted(maxBatches),
		memory:  newMemoryStore(cfg.Server.MemoryBlockSize),
		cfg:     cfg,
		logger:  logger,
	}

	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(srv.timingMiddleware)
	srv.router.Use(metricsMiddleware)
	srv.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Api-Response-Code"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	srv.routes()

	return srv
}

// routes registers all HTTP routes on the router.
func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", metricsHandler())

	s.router.Get("/test1", s.handleTest1)
	s.router.Get("/test2", s.handleTest2)

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/batch", s.handleBatch)
		r.Get("/shared", s.handleShared)
		r.Post("/memory/add", s.handleMemoryAdd)
		r.Post("/memory/remove", s.handleMemoryRemove)
	})
}

// Router returns the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts the
// HTTP server down and closes the shared executor.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down", "cause", context.Cause(ctx))
	case err := <-errCh:
		if err != nil {
			s.closeShared()
			return fmt.Errorf("server error: %w", err)
		}
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs util.MultiError
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		errs.Add(fmt.Errorf("shutdown: %w", err))
	}
	if err := s.shared.Close(shutdownCtx); err != nil {
		errs.Add(fmt.Errorf("close shared executor: %w", err))
	}

	if errs.Len() == 0 {
		s.logger.Info("server stopped")
	}
	return errs.ErrorOrNil()
}

func (s *Server) closeShared() {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
	defer cancel()
	if err := s.shared.Close(ctx); err != nil {
		s.logger.Error("close shared executor", "error", err)
	}
}

// timingMiddleware logs each request with its cost and envelope code.
func (s *Server) timingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"cost_ms", time.Since(start).Milliseconds(),
			"code", ww.Header().Get(response.HeaderCode),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
