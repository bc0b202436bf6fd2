package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/cli"
	httpAdapter "github.com/aretw0/tendril/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes the dispatcher as a JSON API over HTTP, with an SSE event
stream and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		app, err := startApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		handler, err := newServeHandler(app)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("tendril server listening", "address", srv.Addr, "manifest", cfg.Manifest)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			app.Logger.Info("shutting down", "signal", sig.String())
			cancel()

			// Give outstanding requests a deadline for completion.
			shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				return srv.Close()
			}
			app.Logger.Info("tendril server stopped gracefully")
			return nil
		}
	},
}

// newServeHandler mounts the command API and, when enabled, the metrics endpoint.
func newServeHandler(app *cli.App) (http.Handler, error) {
	opts := []httpAdapter.Option{
		httpAdapter.WithLogger(app.Logger),
		httpAdapter.WithMaxInput(cfg.MaxInput),
	}
	if cfg.HTTP.Events {
		opts = append(opts, httpAdapter.WithStreams(app.Streams))
	}
	api, err := httpAdapter.NewHandler(app.Dispatcher, opts...)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	if cfg.HTTP.Metrics {
		r.Handle("/metrics", promhttp.HandlerFor(app.Metrics, promhttp.HandlerOpts{}))
	}
	r.Mount("/", api)
	return r, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
