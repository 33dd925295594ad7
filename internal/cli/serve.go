package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"todo-list/internal/board"
	"todo-list/internal/middleware"
)

func newServeCommand(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b, err := a.openBoard(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			handler := board.NewHandler(b, board.HandlerOptions{
				RequestTimeout: a.cfg.RequestTimeout.Duration,
				AdminUser:      a.cfg.Admin.User,
				AdminPassword:  a.cfg.Admin.Password,
			})

			srv := &http.Server{
				Addr:              a.cfg.Listen,
				Handler:           a.withMiddleware(handler.Router()),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("server running", "addr", a.cfg.Listen, "data", a.cfg.DataFile)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (overrides config)")
	return cmd
}

// withMiddleware навешивает общесервисные middleware на собранный роутер.
func (a *app) withMiddleware(h http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.LoggingMiddleware(a.logger))

	r.Mount("/", h)
	return r
}
