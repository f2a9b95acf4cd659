package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ridepool/internal/api"
	"ridepool/internal/auth"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API and the webhook delivery worker.

On SIGINT or SIGTERM the listener stops first, then queued and running
jobs get jobs.shutdown_grace to finish before they are marked ERROR.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to start services", zap.Error(err))
		return err
	}
	defer svc.close(logger)

	srv := api.NewServer(svc.jobs, svc.store, svc.broker, logger, api.Options{
		RateRPS: cfg.Rate.RPS,
		Burst:   cfg.Rate.Burst,
		Metrics: cfg.Metrics.Enabled,
	})
	srv.Deliveries = svc.queue
	srv.Settings = settingsSummary(cfg)
	if cfg.Auth.HMACSecret != "" {
		srv.Auth = auth.NewVerifier(cfg.Auth.HMACSecret)
	} else {
		logger.Warn("auth.hmac_secret unset; admin endpoints are open")
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	svc.worker.Start()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = svc.jobs.Shutdown(context.Background())
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := svc.jobs.Shutdown(context.Background()); err != nil {
		logger.Warn("job shutdown", zap.Error(err))
	}
	return nil
}
