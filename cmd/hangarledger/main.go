package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jask/hangarledger/internal/config"
	"github.com/jask/hangarledger/internal/database"
	"github.com/jask/hangarledger/internal/storage"
)

// app is the opened ledger shared by all subcommands.
type app struct {
	cfg    config.Config
	db     *sql.DB
	blobs  storage.Store
	logger *log.Logger
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "hangarledger",
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// openApp loads configuration, migrates and opens the database and
// connects the blob store.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cfg.Log.Level)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path, cfg.Database.Migrations); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	blobs, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}
	logger.Debug("ledger opened", "db", cfg.Database.Path, "storage", cfg.Storage.Backend)
	return &app{cfg: cfg, db: db, blobs: blobs, logger: logger}, nil
}

func (a *app) Close() error {
	if c, ok := a.blobs.(io.Closer); ok {
		_ = c.Close()
	}
	return a.db.Close()
}

// withApp wraps a subcommand body with ledger setup and teardown.
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hangarledger",
		Short:         "Aviation expense ledger: imports, backups and exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newImportCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newExportCmd(),
		newTemplateCmd(),
		newResetCmd(),
		newSampleCmd(),
	)
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		newLogger("error").Error(err.Error())
		os.Exit(1)
	}
}
