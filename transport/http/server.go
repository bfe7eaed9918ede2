package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ShutdownHook is a function that gets called during shutdown.
type ShutdownHook func(ctx context.Context) error

// Server wraps an http.Server around the adapter with graceful
// shutdown and registered shutdown hooks. Extra handlers (the
// websocket hub endpoint) can be mounted beside the dispatcher before
// Start.
type Server struct {
	srv     *http.Server
	mux     *http.ServeMux
	logger  *zap.Logger
	hooks   []ShutdownHook
	timeout time.Duration
}

// NewServer creates a server for the adapter listening on addr.
func NewServer(addr string, adapter *Adapter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/", adapter)
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		mux:     mux,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// Mount registers an extra handler on the server mux, bypassing the
// dispatch pipeline. Must be called before Start.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// OnShutdown registers a hook run during Shutdown, before the listener
// closes.
func (s *Server) OnShutdown(hook ShutdownHook) {
	s.hooks = append(s.hooks, hook)
}

// SetTimeouts overrides the default read/write/idle timeouts.
func (s *Server) SetTimeouts(read, write, idle time.Duration) {
	s.srv.ReadTimeout = read
	s.srv.WriteTimeout = write
	s.srv.IdleTimeout = idle
}

// Start begins serving. It blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("address", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and runs shutdown hooks.
func (s *Server) Shutdown(ctx context.Context) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info("starting graceful shutdown")

	var hookErr error
	for i, hook := range s.hooks {
		if err := hook(ctx); err != nil {
			s.logger.Error("shutdown hook failed", zap.Int("index", i), zap.Error(err))
			if hookErr == nil {
				hookErr = fmt.Errorf("shutdown hook %d: %w", i, err)
			}
		}
	}

	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("server shutdown failed", zap.Error(err))
		return err
	}

	s.logger.Info("graceful shutdown completed")
	return hookErr
}
