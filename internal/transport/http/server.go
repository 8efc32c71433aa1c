// Package http
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"lcars-core/internal/config"
	"lcars-core/internal/logger"
)

type Server struct {
	cfg     *config.Config
	handler http.Handler
	log     logger.Logger
	srv     *http.Server
}

func NewServer(cfg *config.Config, handler http.Handler, log logger.Logger) *Server {
	return &Server{cfg: cfg, handler: handler, log: log}
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http: starting server", "address", ln.Addr().String())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("http: server shutdown error", "error", err)
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}
