package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Veraticus/smarttrack/internal/cli"
	"github.com/Veraticus/smarttrack/internal/config"
	"github.com/Veraticus/smarttrack/internal/storage"
	"github.com/spf13/cobra"
)

type backupper interface {
	Backup(ctx context.Context, destPath string) (storage.BackupInfo, error)
}

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [path]",
		Short: "Copy the SQLite database to a backup file",
		Long: `Write a consistent, integrity-checked copy of the SQLite database.

Without a path the copy goes to the backups directory next to your config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			b, ok := a.store.(backupper)
			if !ok {
				return fmt.Errorf("backups are only supported for the %s driver", storage.DriverSQLite)
			}

			dest := defaultBackupPath(time.Now())
			if len(args) == 1 {
				if dest, err = filepath.Abs(config.ExpandPath(args[0])); err != nil {
					return err
				}
			}

			info, err := b.Backup(cmd.Context(), dest)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Backed up %d transactions and %d users to %s",
				info.RowCounts["transactions"], info.RowCounts["users"], info.Path)))
			return nil
		},
	}
}

func defaultBackupPath(now time.Time) string {
	return filepath.Join(config.Dir(), "backups", "smarttrack-"+now.Format("20060102-150405")+".db")
}
