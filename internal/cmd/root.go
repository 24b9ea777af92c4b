package cmd

import (
	"github.com/spf13/cobra"

	"github.com/adamancini/planetsync/internal/logging"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	verbose      bool
	quiet        bool
	logJSON      bool
)

func Execute(version, commit, date string) error {
	setBuildInfo(version, commit, date)

	rootCmd := &cobra.Command{
		Use:   "planetsync",
		Short: "Keep a ZeroTier planet file in sync with its controller",
		Long: `planetsync watches a remote root-server IP list and updates the local
ZeroTier planet file when it changes: download, backup, atomic replace,
service restart, and verification, with automatic rollback on failure.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")

	// Add subcommands
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newDaemonCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion function for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd.Execute()
}

// configureLogging applies the verbosity flags to the process logger.
func configureLogging() {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	if quiet {
		level = logging.LevelError
	}
	logging.SetDefault(logging.New(logging.Config{Level: level, JSON: logJSON}))
}
