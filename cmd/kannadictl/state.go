package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"kannadi/internal/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the whole ledger as JSON (stdout when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Replace the ledger with a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "SQLite schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		v, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
		if err != nil {
			return err
		}
		state := "clean"
		if dirty {
			state = "dirty"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: version %d (%s)\n", cfg.SQLiteDBPath, v, state)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateVersionCmd)
	rootCmd.AddCommand(exportCmd, importCmd, migrateCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		fd, err := a.state.Export(ctx)
		if err != nil {
			return err
		}
		out := a.out
		if len(args) == 1 {
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(fd)
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	var (
		b   []byte
		err error
	)
	if args[0] == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		res, err := a.state.Import(ctx, b)
		if err != nil {
			return err
		}
		if flagJSON {
			return a.printJSON(res)
		}
		fmt.Fprintf(a.out, "Imported %d incomes, %d expenses, %d custom categories and %d recurring templates.\n",
			res.Incomes, res.Expenses, res.Categories, res.Recurring)
		return nil
	})
}
