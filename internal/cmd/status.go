package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamancini/planetsync/internal/backup"
	"github.com/adamancini/planetsync/internal/logging"
	"github.com/adamancini/planetsync/internal/service"
	"github.com/adamancini/planetsync/internal/state"
)

// statusReport summarizes the locally known sync state.
type statusReport struct {
	PlanetPath    string `json:"planet_path" yaml:"planet_path"`
	PlanetExists  bool   `json:"planet_exists" yaml:"planet_exists"`
	PlanetSize    int64  `json:"planet_size,omitempty" yaml:"planet_size,omitempty"`
	Fingerprint   string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	LastCheckedAt string `json:"last_checked_at,omitempty" yaml:"last_checked_at,omitempty"`
	LastUpdatedAt string `json:"last_updated_at,omitempty" yaml:"last_updated_at,omitempty"`
	Backups       int    `json:"backups" yaml:"backups"`
	LatestBackup  string `json:"latest_backup,omitempty" yaml:"latest_backup,omitempty"`
	ServiceState  string `json:"service_state" yaml:"service_state"`
	ServiceRole   string `json:"service_role,omitempty" yaml:"service_role,omitempty"`
}

func (r statusReport) String() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Planet file:\t%s\n", r.PlanetPath)
	if r.PlanetExists {
		fmt.Fprintf(tw, "Size:\t%d bytes\n", r.PlanetSize)
	} else {
		fmt.Fprintf(tw, "Size:\tmissing\n")
	}
	if r.Fingerprint != "" {
		fmt.Fprintf(tw, "Fingerprint:\t%s\n", r.Fingerprint)
	} else {
		fmt.Fprintf(tw, "Fingerprint:\tnone (never checked)\n")
	}
	if r.LastCheckedAt != "" {
		fmt.Fprintf(tw, "Last checked:\t%s\n", r.LastCheckedAt)
	}
	if r.LastUpdatedAt != "" {
		fmt.Fprintf(tw, "Last updated:\t%s\n", r.LastUpdatedAt)
	}
	fmt.Fprintf(tw, "Backups:\t%d\n", r.Backups)
	if r.LatestBackup != "" {
		fmt.Fprintf(tw, "Latest backup:\t%s\n", r.LatestBackup)
	}
	fmt.Fprintf(tw, "Service:\t%s\n", r.ServiceState)
	if r.ServiceRole != "" {
		fmt.Fprintf(tw, "Role:\t%s\n", r.ServiceRole)
	}

	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local sync state",
		Long: `Status reports the planet file on disk, the cached fingerprint,
available backups, and whether the service is running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			rep := statusReport{PlanetPath: cfg.PlanetPath, ServiceState: "unknown"}

			if info, err := os.Stat(cfg.PlanetPath); err == nil {
				rep.PlanetExists = true
				rep.PlanetSize = info.Size()
			}

			st, err := state.NewStore(cfg.StatePath).Load()
			if err == nil && !st.IsZero() {
				rep.Fingerprint = st.Fingerprint
				if !st.LastCheckedAt.IsZero() {
					rep.LastCheckedAt = st.LastCheckedAt.Format(time.RFC3339)
				}
				if !st.LastUpdatedAt.IsZero() {
					rep.LastUpdatedAt = st.LastUpdatedAt.Format(time.RFC3339)
				}
			}

			mgr := backup.NewManager(cfg.PlanetPath)
			if backups, err := mgr.List(); err == nil {
				rep.Backups = len(backups)
				if len(backups) > 0 {
					rep.LatestBackup = backups[0].Path
				}
			}

			svc, err := service.Select(runtime.GOOS, &service.DefaultCommandRunner{},
				service.Options{Wait: cfg.ServiceWait()}, logging.Default())
			if err == nil {
				if svc.IsRunning(cmd.Context()) {
					rep.ServiceState = "running"
				} else {
					rep.ServiceState = "stopped"
				}
				role, _ := svc.RoleInfo(cmd.Context())
				rep.ServiceRole = role.String()
			}

			return w.Write(rep)
		},
	}
}
