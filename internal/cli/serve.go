package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	dashboard "txdash/internal/http"
	"txdash/internal/log"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The dashboard loads on the first page view, not here.
			ws, err := app.open(cmd.Context(), false)
			if err != nil {
				return err
			}

			srv, err := dashboard.NewServer(app.Config.Addr(), ws.sess, ws.locale, app.Logger)
			if err != nil {
				ws.Close()
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("Dashboard listening",
					"addr", srv.Addr,
					log.FieldBackend, app.Config.DataBackend,
					"locale", ws.locale.Code)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			ctx, done := GracefulShutdown(app.Logger, shutdownTimeout, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					app.Logger.Error("Dashboard shutdown failed", log.FieldError, err)
				}
				ws.Close()
			})

			select {
			case err, ok := <-errCh:
				if ok {
					ws.Close()
					return err
				}
				WaitForShutdown(ctx, done)
			case <-ctx.Done():
				<-done
			}
			return nil
		},
	}
}
