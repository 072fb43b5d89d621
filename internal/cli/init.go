// Package cli holds the bootstrap steps shared by cmd/kannadi,
// cmd/kannadi-worker, cmd/recurring-worker and cmd/kannadictl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kannadi/internal/amqp"
	"kannadi/internal/config"
	"kannadi/internal/core"
	"kannadi/internal/ledger"
	"kannadi/internal/ledger/memory"
	applog "kannadi/internal/log"
	"kannadi/internal/services"
	"kannadi/internal/sheets"
	"kannadi/internal/sheets/google"
	"kannadi/internal/storage"
)

// SetupLogger builds the process logger from the configured level and
// format and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	lc := applog.DefaultConfig()
	lc.Component = component
	if cfg != nil {
		lc.Level = applog.ParseLevel(cfg.LogLevel)
		lc.Format = cfg.LogFormat
	}
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits the process when it
// is unusable. Failures are written with a bootstrap logger because the
// real one depends on the config.
func LoadAndValidateConfig() *config.Config {
	boot := applog.New(applog.DefaultConfig())
	cfg, err := config.Load()
	if err != nil {
		boot.Error("Failed to load configuration", applog.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		boot.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Backend is an opened ledger plus whatever it needs to release.
type Backend struct {
	ledger.Ledger
	// Ping is nil for backends with nothing to check.
	Ping  func(ctx context.Context) error
	close func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenLedger opens the configured backend and seeds the default categories
// into an empty one.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Backend, error) {
	defaults, err := core.DefaultCategories()
	if err != nil {
		return nil, fmt.Errorf("load default categories: %w", err)
	}

	switch cfg.DataBackend {
	case "memory":
		logger.Info("Using in-memory ledger", "categories", len(defaults))
		return &Backend{Ledger: memory.New(defaults)}, nil
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		seeded, err := repo.SeedCategories(ctx, defaults)
		if err != nil {
			repo.Close()
			return nil, err
		}
		logger.Info("Using SQLite ledger", "path", cfg.SQLiteDBPath, "seeded", seeded)
		return &Backend{Ledger: repo, Ping: repo.Ping, close: repo.Close}, nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}

// ConnectBroker dials the configured broker. It returns a nil client when
// AMQP is not configured or unreachable, in which case writes still succeed
// and only the snapshot worker misses the event.
func ConnectBroker(cfg *config.Config, logger *applog.Logger) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, month changed events will not be published")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("Failed to connect to AMQP, continuing without events", applog.FieldError, err)
		return nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// Publisher adapts a possibly nil client to the services interface so a
// missing broker is a nil interface rather than a nil pointer.
func Publisher(client *amqp.Client) services.EventPublisher {
	if client == nil {
		return nil
	}
	return client
}

// SnapshotExporter returns the Google Sheets exporter when a spreadsheet is
// configured and nil otherwise.
func SnapshotExporter(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.SnapshotExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets export disabled, no spreadsheet configured")
		return nil, nil
	}
	client, err := google.NewClient(ctx, google.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetBase:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init google sheets: %w", err)
	}
	logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM after
// running cleanup. done closes once cleanup has finished or timed out.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		cancel()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is over.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
