package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamancini/planetsync/internal/backup"
	"github.com/adamancini/planetsync/internal/interactive"
	"github.com/adamancini/planetsync/internal/logging"
	"github.com/adamancini/planetsync/internal/replacer"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage planet file backups",
		Long: `Backup manages the copies planetsync takes before each replacement.
Backups live next to the planet file as <name>.backup_<timestamp>.`,
	}

	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupRestoreCmd())
	cmd.AddCommand(newBackupDeleteCmd())
	cmd.AddCommand(newBackupPruneCmd())

	return cmd
}

// backupEntry is one row of backup list output.
type backupEntry struct {
	Path      string `json:"path" yaml:"path"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
	Size      int64  `json:"size" yaml:"size"`
}

type backupList []backupEntry

func (l backupList) String() string {
	if len(l) == 0 {
		return "No backups found."
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tSIZE\tPATH")
	for _, e := range l {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.CreatedAt, e.Size, e.Path)
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			backups, err := backup.NewManager(cfg.PlanetPath).List()
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}

			list := make(backupList, 0, len(backups))
			for _, b := range backups {
				list = append(list, backupEntry{
					Path:      b.Path,
					CreatedAt: b.CreatedAt.Format(time.RFC3339),
					Size:      b.Size,
				})
			}
			return w.Write(list)
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore [backup-path]",
		Short: "Restore a backup over the current planet file",
		Long: `Restore copies a backup back into place. Without an argument the most
recent backup is used. The current planet file is backed up first, so
a restore can itself be undone. The service is not restarted; run
'planetsync update' or restart it manually afterwards.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mgr := backup.NewManager(cfg.PlanetPath)

			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				latest, err := mgr.Latest()
				if err != nil {
					return fmt.Errorf("failed to find latest backup: %w", err)
				}
				if latest == nil {
					return fmt.Errorf("no backups found for %s", cfg.PlanetPath)
				}
				path = latest.Path
			}

			if !yes && interactive.IsTerminal() {
				p := interactive.NewPrompter()
				if !p.Confirm("Restore %s over %s?", path, cfg.PlanetPath) {
					return fmt.Errorf("aborted")
				}
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}
			if _, err := replacer.New(logging.Default()).Replace(cfg.PlanetPath, content); err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			w, err := newWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			w.Textf("Restored %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newBackupDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <backup-path>",
		Short: "Delete a single backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if !yes && interactive.IsTerminal() {
				p := interactive.NewPrompter()
				if !p.Confirm("Delete backup %s?", args[0]) {
					return fmt.Errorf("aborted")
				}
			}

			if err := backup.NewManager(cfg.PlanetPath).Delete(args[0]); err != nil {
				return fmt.Errorf("failed to delete backup: %w", err)
			}

			w, err := newWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			w.Textf("Deleted %s", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newBackupPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("keep") {
				keep = cfg.BackupKeep
			}

			result, err := backup.NewManager(cfg.PlanetPath).Prune(keep)
			if err != nil {
				return fmt.Errorf("prune failed: %w", err)
			}

			w, err := newWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			w.Textf("Deleted %d backups, kept %d", len(result.Deleted), result.Kept)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", backup.DefaultKeepCount, "Number of backups to retain")

	return cmd
}
