package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newDaemonCmd() *cobra.Command {
	var interval int
	var metricsAddress string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run update cycles continuously",
		Long: `Daemon checks the remote IP list at a fixed interval and applies
updates as they appear. Failed cycles are logged and retried on the
next tick; the process only stops on SIGINT or SIGTERM, and never
mid-rollback.

Examples:
  planetsync daemon
  planetsync daemon --interval 60
  planetsync daemon --metrics-address localhost:9464`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				cfg.CheckInterval = interval
			}
			if cmd.Flags().Changed("metrics-address") {
				cfg.MetricsAddress = metricsAddress
			}

			orch, err := newOrchestrator(cfg)
			if err != nil {
				return err
			}
			if err := orch.Preflight(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return orch.RunDaemon(ctx)
		},
	}

	cmd.Flags().IntVar(&interval, "interval", 0, "Override check interval in seconds")
	cmd.Flags().StringVar(&metricsAddress, "metrics-address", "", "Serve Prometheus metrics on this address")

	return cmd
}
