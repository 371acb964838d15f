package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/sessionshard"
	"github.com/aretw0/sessionshard/internal/presentation/tui"
	httpAdapter "github.com/aretw0/sessionshard/pkg/adapters/http"
	"github.com/aretw0/sessionshard/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP admin server",
	Long: `Serves the session store over HTTP: GET/PUT/DELETE /sessions/{id},
GET /sessions/{id}/route, GET /pool, GET /healthz and Prometheus metrics on GET /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))

		h, err := openHandler(cmd.Context(), cfg, logger, sessionshard.WithHooks(hooks))
		if err != nil {
			return err
		}
		defer h.Close()

		srv := &http.Server{
			Addr: cfg.Listen,
			Handler: httpAdapter.NewHandler(h,
				httpAdapter.WithLogger(logger),
				httpAdapter.WithMetrics(reg),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			tui.PrintBanner(cmd.ErrOrStderr())
			logger.Info("Starting sessionshard server",
				"addr", srv.Addr,
				"members", len(h.Pool().Members()),
				"version", sessionshard.Version,
			)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("Start shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("sessionshard server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "Address to listen on (default :8080)")
}
