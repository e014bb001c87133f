package app

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/muestras/config"
	"github.com/shashiranjanraj/muestras/internal/server"
)

// Serve runs the background jobs and the HTTP server on APP_PORT until ctx
// ends, then waits for the jobs to return.
func (a *Application) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, fn := range a.background {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	err := server.Start(ctx, config.AppPort(), a.Handler())
	cancel()
	wg.Wait()
	return err
}
