package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stock-dashboard/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard session over HTTP",
		Long: `Serve the single dashboard session as a JSON API.

  GET  /health
  GET  /api/v1/dashboard
  PUT  /api/v1/symbol     {"symbol":"AAPL","market":"foreign","lookback":30}
  POST /api/v1/question   {"question":"..."}`,
		Example: `  dashboard serve
  dashboard serve --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = app.Config.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handler := api.NewHandler(app.Controller, app.Config.DefaultMarket(), app.Logger)
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.SetupRoutes(handler),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(ctx, srv, app)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	return cmd
}

// serve runs srv until ctx is done, then shuts it down.
func serve(ctx context.Context, srv *http.Server, app *App) error {
	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info().Str("addr", srv.Addr).Msg("HTTP API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.Logger.Info().Msg("Shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
