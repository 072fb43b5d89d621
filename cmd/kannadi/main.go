package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"kannadi/internal/cache"
	"kannadi/internal/cli"
	apphttp "kannadi/internal/http"
	applog "kannadi/internal/log"
	"kannadi/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	logger.Info("Starting kannadi", applog.FieldOperation, applog.OpStartup,
		"backend", cfg.DataBackend, "currency", cfg.Currency)

	ctx := context.Background()
	backend, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", applog.FieldError, err)
		os.Exit(1)
	}

	broker := cli.ConnectBroker(cfg, logger)

	reportCache := cache.NewLRUCache[any](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(reportCache)
	cacheManager.StartCleanup(time.Minute)

	reports := services.NewReportService(backend, reportCache, services.ReportOptions{
		DefaultCurrency: cfg.Currency,
		AnalysisLimit:   cfg.AnalysisLimit,
	}, logger)
	publisher := cli.Publisher(broker)
	transactions := services.NewTransactionService(backend, publisher, reports, logger)
	state := services.NewStateService(backend, publisher, reports, cfg.Currency, logger)

	if migrated, err := state.Restore(ctx); err != nil {
		logger.Error("Failed to restore legacy state", applog.FieldError, err)
	} else if migrated {
		logger.Info("Legacy state migrated into the ledger")
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		WriteRateLimit: cfg.WriteRateLimit,
		Ready:          backend.Ping,
	}, apphttp.Services{
		Transactions: transactions,
		Reports:      reports,
		Recurring:    services.NewRecurringProcessor(backend, transactions, logger),
		State:        state,
	}, logger)

	shutdownCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
		if broker != nil {
			if err := broker.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
		if err := backend.Close(); err != nil {
			logger.Warn("Ledger close error", applog.FieldError, err)
		}
	})

	logger.Info("Listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
