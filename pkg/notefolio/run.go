package notefolio

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails. Graceful shutdown allows five seconds for in-flight
// requests.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	server := &http.Server{
		Addr:    ":" + a.config.ServerPort,
		Handler: a.Router(),
	}

	a.log.Info().Str("addr", server.Addr).Msg("starting server")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
