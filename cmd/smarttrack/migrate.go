package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/smarttrack/internal/config"
	"github.com/Veraticus/smarttrack/internal/storage"
	"github.com/spf13/cobra"
)

type versioned interface {
	SchemaVersion(ctx context.Context) (int, error)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates on startup; use this to prepare a database
ahead of time or to check its schema version.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show the current schema version without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Database.Driver == storage.DriverSQLite {
		if err := config.EnsureParentDir(cfg.Database.Path); err != nil {
			return err
		}
	}

	store, err := storage.Open(storage.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if !status {
		slog.Info("🗄️  Running database migrations...", "driver", cfg.Database.Driver)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	v, ok := store.(versioned)
	if !ok {
		return nil
	}
	version, err := v.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if status {
		fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", version)
		return nil
	}
	slog.Info("✅ Database migrations completed successfully!", "version", version)
	return nil
}
