package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kannadi/internal/cli"
	"kannadi/internal/config"
	"kannadi/internal/core"
	applog "kannadi/internal/log"
	"kannadi/internal/services"
)

var (
	flagDB      string
	flagMonth   string
	flagJSON    bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "kannadictl",
	Short:         "Budget reports from the command line",
	Long:          "Inspect the kannadi ledger: summaries, trends, projections, goals and insights.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().StringVarP(&flagMonth, "month", "m", "", "Reference month YYYY-MM (default current month)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log to stderr")
}

// app is the service graph every command works through.
type app struct {
	cfg     *config.Config
	backend *cli.Backend
	reports *services.ReportService
	state   *services.StateService
	out     io.Writer
}

func loadConfig() (*config.Config, error) {
	cli.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.DataBackend = "sqlite"
		cfg.SQLiteDBPath = flagDB
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func cliLogger() *applog.Logger {
	level := slog.LevelError
	if flagVerbose {
		level = slog.LevelDebug
	}
	return applog.New(applog.Config{Level: level, Output: os.Stderr, Component: applog.ComponentCLI})
}

// openApp opens the ledger without a cache or broker. Reports are computed
// once per invocation.
func openApp(ctx context.Context, out io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cliLogger()
	backend, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	reports := services.NewReportService(backend, nil, services.ReportOptions{
		DefaultCurrency: cfg.Currency,
		AnalysisLimit:   cfg.AnalysisLimit,
	}, logger)
	return &app{
		cfg:     cfg,
		backend: backend,
		reports: reports,
		state:   services.NewStateService(backend, nil, reports, cfg.Currency, logger),
		out:     out,
	}, nil
}

// withApp runs fn against an opened app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.backend.Close()
	return fn(ctx, a)
}

func referenceMonth() (core.Month, error) {
	if flagMonth == "" {
		return core.MonthOf(time.Now()), nil
	}
	m, err := core.ParseMonth(flagMonth)
	if err != nil {
		return core.Month{}, fmt.Errorf("invalid --month %q: want YYYY-MM", flagMonth)
	}
	return m, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
