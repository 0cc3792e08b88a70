package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Run serves the API on address until ctx is cancelled, then shuts down
// gracefully, letting in-flight requests finish.
func (s *Server) Run(ctx context.Context, address string) error {
	listen, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// cancelled on ctx or when Serve fails on its own
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.log.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, release := context.WithTimeout(context.Background(), shutdownTimeout)
		defer release()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error(shutdownCtx, "shutdown", "error", err)
		}
	}()

	s.log.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	err := srv.Serve(listen)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	cancel()
	<-stopped
	return err
}
