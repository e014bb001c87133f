// Package server binds the console handler to a port and shuts it down
// gracefully when the context ends.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/shashiranjanraj/muestras/pkg/logger"
)

// ShutdownTimeout bounds how long in-flight requests may finish.
const ShutdownTimeout = 10 * time.Second

// Start serves handler on addr (":8080" or "8080") until ctx is cancelled.
func Start(ctx context.Context, addr string, handler http.Handler) error {
	if addr == "" {
		addr = ":8080"
	} else if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = ":" + addr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("console listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("console shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
