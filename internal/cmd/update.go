package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/planetsync/internal/interactive"
)

func newUpdateCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Force an update regardless of the cached fingerprint",
		Long: `Update downloads and installs the planet file even when the remote IP
list has not changed. The usual safety net still applies: backup,
atomic replace, restart, verification, and rollback on failure.

Examples:
  planetsync update          # prompts for confirmation on a TTY
  planetsync update --yes    # no prompt, for scripts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !interactive.IsTerminal() {
					return fmt.Errorf("refusing to force an update without --yes in a non-interactive session")
				}
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				p := interactive.NewPrompter()
				if !p.Confirm("Replace the planet file at %s and restart the service?", cfg.PlanetPath) {
					return fmt.Errorf("aborted")
				}
			}
			return runCycle(cmd, true)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
