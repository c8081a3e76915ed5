package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dukerupert/lifemate/internal/backup"
	"github.com/dukerupert/lifemate/internal/config"
	"github.com/dukerupert/lifemate/internal/database"
	"github.com/dukerupert/lifemate/internal/kv"
)

func backupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage encrypted backups",
		Long: `Upload, list and restore encrypted snapshots of the store in
S3-compatible storage, or move them through local files.

Stop the server before restore or import; it picks up the restored ids on
its next start.`,
	}
	cmd.PersistentFlags().String("passphrase", "", "encryption passphrase (defaults to the configured one)")

	cmd.AddCommand(
		backupRunCommand(),
		backupListCommand(),
		backupRestoreCommand(),
		backupExportCommand(),
		backupImportCommand(),
		backupCleanupCommand(),
	)
	return cmd
}

// backupEnv is what a backup subcommand works with besides the manager.
type backupEnv struct {
	cfg    config.Config
	pass   string
	logger *slog.Logger
}

// withManager opens the store and hands a backup manager to fn.
func withManager(cmd *cobra.Command, fn func(ctx context.Context, m *backup.Manager, env backupEnv) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	pass, _ := cmd.Flags().GetString("passphrase")
	if pass == "" {
		pass = cfg.Backup.Passphrase
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	m := newManager(db, backupConfig(cfg), logger)
	return fn(cmd.Context(), m, backupEnv{cfg: cfg, pass: pass, logger: logger})
}

func newManager(db *sql.DB, cfg backup.Config, logger *slog.Logger) *backup.Manager {
	return backup.NewManager(cfg, kv.New(db, logger.With("component", "kv")), nil, logger, nil)
}

func backupRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Upload a backup now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, func(ctx context.Context, m *backup.Manager, _ backupEnv) error {
				key, err := m.RunNow(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), key)
				return nil
			})
		},
	}
}

func backupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, func(ctx context.Context, m *backup.Manager, _ backupEnv) error {
				objects, err := m.List(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "KEY\tSIZE\tAGE")
				for _, o := range objects {
					fmt.Fprintf(w, "%s\t%s\t%s\n", o.Key, humanize.Bytes(uint64(o.Size)), humanize.Time(o.LastModified))
				}
				return w.Flush()
			})
		},
	}
}

func backupRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <key>",
		Short: "Replace the store with an uploaded backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, func(ctx context.Context, m *backup.Manager, env backupEnv) error {
				snap, err := m.Restore(ctx, args[0], env.pass)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %d entries from %s\n", len(snap.Entries), snap.CreatedAt.Format("2006-01-02 15:04"))
				return nil
			})
		},
	}
}

func backupExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an encrypted snapshot to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			return withManager(cmd, func(_ context.Context, m *backup.Manager, env backupEnv) error {
				data, err := m.Export(env.pass)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o600); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				env.logger.Info("backup exported", "file", out, "bytes", len(data))
				return nil
			})
		},
	}
	cmd.Flags().StringP("out", "o", "lifemate-backup.json.enc", "output file")
	return cmd
}

func backupImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the store with an exported snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withManager(cmd, func(_ context.Context, m *backup.Manager, env backupEnv) error {
				if env.pass == "" {
					return backup.ErrNoPassphrase
				}
				snap, err := m.Import(data, env.pass)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries\n", len(snap.Entries))
				return nil
			})
		},
	}
}

func backupCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete uploaded backups past the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, func(ctx context.Context, m *backup.Manager, env backupEnv) error {
				if env.cfg.Backup.Retention <= 0 {
					return errors.New("backup retention is not set")
				}
				n, err := m.Cleanup(ctx, env.cfg.Backup.Retention)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d backups\n", n)
				return nil
			})
		},
	}
}
