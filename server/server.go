// Package server exposes a view.State over HTTP/JSON.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/razeghi71/tabview/config"
	"github.com/razeghi71/tabview/logger"
	"github.com/razeghi71/tabview/view"
)

const shutdownTimeout = 10 * time.Second

// Server is the tabview HTTP server.
type Server struct {
	cfg     config.Server
	handler *Handler
}

// NewServer creates a server over state.
func NewServer(state *view.State, cfg *config.Config) *Server {
	return &Server{
		cfg:     cfg.Server,
		handler: NewHandler(state, cfg.View, cfg.LoaderOptions()),
	}
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler.Routes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown failed", "error", err)
		}
	}()

	logger.Info("tabview server listening", "addr", ln.Addr().String())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		logger.Info("tabview server stopped")
		return nil
	}

	cancel()
	<-done
	logger.Error("tabview server failed", "error", err)
	return err
}
