package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"kannadi/internal/cli"
	applog "kannadi/internal/log"
	"kannadi/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentRecurring)

	logger.Info("Starting recurring-worker", applog.FieldOperation, applog.OpStartup,
		"schedule", cfg.RecurringSchedule)

	backend, err := cli.OpenLedger(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", applog.FieldError, err)
		os.Exit(1)
	}
	defer backend.Close()

	broker := cli.ConnectBroker(cfg, logger)
	if broker != nil {
		defer broker.Close()
	}

	// The API process owns the report cache; here writes only announce
	// changed months.
	transactions := services.NewTransactionService(backend, cli.Publisher(broker), nil, logger)
	processor := services.NewRecurringProcessor(backend, transactions, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	run := func(now time.Time) {
		count, err := processor.ProcessDue(ctx, now)
		if err != nil {
			logger.Error("Recurring processing failed", applog.FieldError, err, applog.FieldCount, count)
			return
		}
		logger.Info("Recurring processing complete", applog.FieldCount, count)
	}

	run(time.Now())

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RecurringSchedule, func() { run(time.Now()) }); err != nil {
		logger.Error("Invalid recurring schedule", applog.FieldError, err, "schedule", cfg.RecurringSchedule)
		os.Exit(1)
	}
	scheduler.Start()

	cli.WaitForShutdown(ctx, done)
	<-scheduler.Stop().Done()
	logger.Info("Recurring-worker stopped")
}
