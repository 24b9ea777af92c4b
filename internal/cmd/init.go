package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adamancini/planetsync/internal/interactive"
	"github.com/adamancini/planetsync/internal/templates"
)

func newInitCmd() *cobra.Command {
	var templateName string
	var outputPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file from a template",
		Long: `Init writes a starter config file from a built-in template.

Available templates:
  minimal  - API key and endpoint only, defaults for everything else
  daemon   - Daemon mode with metrics enabled
  full     - Every option with its default, commented

${VAR} and ${VAR:-default} references in the template are expanded
from the environment at write time.

Examples:
  planetsync init
  planetsync init --template=daemon
  planetsync init --template=full --path /etc/planetsync.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, templateName, outputPath, force)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "minimal", "Template name")
	cmd.Flags().StringVar(&outputPath, "path", "", "Where to write the config file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var completions []string
		for _, name := range templates.List() {
			completions = append(completions, fmt.Sprintf("%s\t%s", name, templates.GetDescription(name)))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runInit(cmd *cobra.Command, templateName, outputPath string, force bool) error {
	tmpl, err := templates.GetExpanded(templateName)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = tmpl.Filename
	}

	if _, err := os.Stat(outputPath); err == nil && !force {
		if !interactive.IsTerminal() {
			return fmt.Errorf("%s already exists, use --force to overwrite", outputPath)
		}
		p := interactive.NewPrompter()
		if !p.Confirm("%s already exists. Overwrite?", outputPath) {
			return fmt.Errorf("aborted")
		}
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, tmpl.Content, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	w, err := newWriter(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	w.Textf("Wrote %s from template %q", outputPath, tmpl.Name)
	w.Textf("Set PLANETSYNC_API_KEY or edit api_key before first use.")
	return nil
}
