package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/dwsmith1983/outcome/internal/config"
	"github.com/dwsmith1983/outcome/internal/member"
	"github.com/dwsmith1983/outcome/internal/metrics"
	"github.com/dwsmith1983/outcome/internal/report"
	"github.com/dwsmith1983/outcome/internal/server"
	"github.com/dwsmith1983/outcome/internal/telemetry"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the member HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dir)
		},
	}
	cmd.Flags().StringVar(&dir, "config-dir", ".", "Directory containing outcome.yaml")
	return cmd
}

func runServe(dir string) error {
	cfg, err := loadConfig(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	ctx := context.Background()

	// Logger
	logger := newLogger(cfg.Log, os.Stderr)

	// Telemetry
	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	rec, err := metrics.New(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

	// API key
	if cfg.Server.APIKeySecretARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("loading AWS config: %w", err)
		}
		if err := config.ResolveAPIKey(ctx, secretsmanager.NewFromConfig(awsCfg), cfg); err != nil {
			return err
		}
	}

	// Store
	st, err := newStore(ctx, cfg, logger, rec)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}

	// Reports
	dispatcher, err := report.NewDispatcher(cfg.Reports, report.WithLogger(logger), report.WithMetrics(rec))
	if err != nil {
		return fmt.Errorf("creating report dispatcher: %w", err)
	}

	svc := member.NewService(st,
		member.WithLogger(logger),
		member.WithConcurrency(cfg.Aggregation.Concurrency),
	)
	srv := server.New(cfg, server.Deps{
		Members: svc,
		Store:   st,
		Reports: dispatcher,
		Logger:  logger,
		Metrics: rec,
	})

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		color.Yellow("\nReceived %s, shutting down...", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
		color.Green("Server stopped gracefully")
		return nil
	}
}
