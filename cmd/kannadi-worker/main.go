package main

import (
	"context"
	"errors"
	"os"
	"time"

	"kannadi/internal/cli"
	applog "kannadi/internal/log"
	"kannadi/internal/worker"
)

// reconcileInterval is how often every month is recomputed to catch
// events lost while the broker was down.
const reconcileInterval = 6 * time.Hour

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting kannadi-worker", applog.FieldOperation, applog.OpStartup)

	backend, err := cli.OpenLedger(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", applog.FieldError, err)
		os.Exit(1)
	}
	defer backend.Close()

	exporter, err := cli.SnapshotExporter(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize snapshot exporter", applog.FieldError, err)
		os.Exit(1)
	}

	broker := cli.ConnectBroker(cfg, logger)
	if broker != nil {
		defer broker.Close()
	}

	snapshots := worker.NewSnapshotWorker(backend, exporter, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	// Catch up on anything written while the worker was down.
	if n, err := snapshots.RecomputeAll(ctx); err != nil {
		logger.Error("Startup recompute failed", applog.FieldError, err, applog.FieldCount, n)
	} else {
		logger.Info("Startup recompute complete", applog.FieldCount, n)
	}

	if broker != nil {
		go func() {
			err := broker.ConsumeMonthChanged(ctx, snapshots.HandleMonthChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption stopped", applog.FieldError, err)
			}
		}()
	} else {
		logger.Info("No broker configured, relying on periodic recompute only")
	}

	go func() {
		ticker := time.NewTicker(reconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := snapshots.RecomputeAll(ctx)
				if err != nil {
					logger.Error("Periodic recompute failed", applog.FieldError, err)
					continue
				}
				logger.Info("Periodic recompute complete", applog.FieldCount, n)
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
