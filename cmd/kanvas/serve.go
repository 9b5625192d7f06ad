package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kanvas-io/kanvas/internal/cli"
	"github.com/kanvas-io/kanvas/internal/presentation/tui"
	httpAdapter "github.com/kanvas-io/kanvas/pkg/adapters/http"
	"github.com/kanvas-io/kanvas/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the workspace REST API with Server-Sent Events for live graph diffs
and a Prometheus endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		logger, err := loadLogger(cmd, cfg, false)
		if err != nil {
			return err
		}

		metrics := observability.NewMetrics(observability.WithLogger(logger))
		streams := httpAdapter.NewStreamManager()

		svc, backend, err := cli.NewService(cfg, logger, metrics.Hooks(), streams.Hooks())
		if err != nil {
			return err
		}
		defer backend.Close()

		handlerOpts := []httpAdapter.Option{
			httpAdapter.WithStreams(streams),
			httpAdapter.WithLogger(logger),
		}
		if cfg.Server.MetricsPath != "" {
			handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(metrics.Handler()))
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           httpAdapter.NewHandler(svc, handlerOpts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		tui.PrintBanner(cmd.ErrOrStderr())

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Kanvas Server", "addr", srv.Addr, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sc.Done():
			logger.Info("Start shutdown", "signal", sc.Signal())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Kanvas Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
}
