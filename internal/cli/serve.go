package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tunelab/internal/httpapi"
	"tunelab/internal/workflow"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr        string
		corsOrigins []string
	)
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the web panel and JSON API",
		Example: "  tunelab serve --addr :8080 --api-url http://trainer:8000",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}
			if len(corsOrigins) > 0 {
				a.cfg.CORSEnabled = true
				a.cfg.CORSOrigins = corsOrigins
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address (defaults TUNELAB_ADDR or :8080)")
	cmd.Flags().StringSliceVar(&corsOrigins, "cors-origin", nil, "Allowed CORS origin for the JSON API (repeatable)")
	return cmd
}

// newServer wires the panel. The returned controller has attempted one model
// load; a failure leaves /readyz at 503 until a refresh succeeds.
func (a *app) newServer(ctx context.Context) (*http.Server, *workflow.Controller, error) {
	notes := workflow.NewMemoryNotifier(0)
	ctrl, _, err := a.controller(ctx, notes)
	if err != nil {
		return nil, nil, err
	}
	if _, err := ctrl.LoadAvailableModels(ctx); err != nil {
		a.log.Warn().Err(err).Str("api_url", a.cfg.APIBaseURL).Msg("initial model load failed")
	}

	httpapi.SetLogger(a.log.With().Str("component", "http").Logger())
	httpapi.SetNotifications(notes)
	httpapi.SetMaxUploadBytes(a.cfg.MaxUploadBytes())
	httpapi.SetCORSOptions(a.cfg.CORSEnabled, a.cfg.CORSOrigins,
		[]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		[]string{"Content-Type", "X-Log-Level", "X-Request-Id"})

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.NewMux(ctrl),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	return srv, ctrl, nil
}

func (a *app) serve(ctx context.Context) error {
	baseCtx, cancelBase := context.WithCancel(ctx)
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	srv, ctrl, err := a.newServer(baseCtx)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Str("api_url", a.cfg.APIBaseURL).Msg("tunelab listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(sctx)
	cancelBase()
	ctrl.Wait()
	if err != nil {
		a.log.Error().Err(err).Msg("graceful shutdown error")
	}
	return err
}
