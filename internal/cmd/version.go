package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/planetsync/internal/selfupdate"
)

// versionInfo carries the build identity.
type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func (v versionInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "planetsync %s\n", v.Version)
	fmt.Fprintf(&b, "  commit:   %s\n", v.Commit)
	fmt.Fprintf(&b, "  built:    %s\n", v.BuildDate)
	fmt.Fprintf(&b, "  go:       %s\n", v.GoVersion)
	fmt.Fprintf(&b, "  platform: %s", v.Platform)
	return b.String()
}

func newVersionCmd() *cobra.Command {
	var checkOnly bool
	var doUpdate bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information and check for updates",
		Long: `Display the current planetsync version and optionally check for or
install updates.

Examples:
  planetsync version              # Show current version
  planetsync version --check     # Check if an update is available
  planetsync version --update    # Download and install the latest version`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !checkOnly && !doUpdate {
				w, err := newWriter(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				return w.Write(versionInfo{
					Version:   buildVersion,
					Commit:    buildCommit,
					BuildDate: buildDate,
					GoVersion: runtime.Version(),
					Platform:  runtime.GOOS + "/" + runtime.GOARCH,
				})
			}
			return runSelfUpdate(cmd, checkOnly)
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Check for updates without installing")
	cmd.Flags().BoolVar(&doUpdate, "update", false, "Update to the latest version")

	return cmd
}

func runSelfUpdate(cmd *cobra.Command, checkOnly bool) error {
	checker := selfupdate.NewChecker(buildVersion, "adamancini", "planetsync")
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		checker = checker.WithToken(token)
	}

	info, err := checker.Check()
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Current version: %s\n", info.CurrentVersion)

	if !info.Available {
		fmt.Fprintln(out, "Already running latest version")
		return nil
	}

	fmt.Fprintf(out, "Latest version: %s available\n", info.LatestVersion)

	if checkOnly {
		if info.ReleaseNotes != "" {
			fmt.Fprintf(out, "\nRelease notes:\n%s\n", info.ReleaseNotes)
		}
		fmt.Fprintln(out, "\nRun 'planetsync version --update' to install")
		return nil
	}

	platform := selfupdate.DetectPlatform()
	if !platform.IsSupported() {
		return fmt.Errorf("unsupported platform: %s/%s", platform.OS, platform.Arch)
	}
	if info.AssetURL == "" {
		return fmt.Errorf("no binary available for %s/%s", platform.OS, platform.Arch)
	}
	if info.ChecksumURL == "" {
		return fmt.Errorf("no checksums available for verification")
	}

	tmpDir, err := os.MkdirTemp("", "planetsync-update-")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpBinary := filepath.Join(tmpDir, platform.AssetName())
	fmt.Fprintf(out, "Downloading %s...\n", platform.AssetName())
	if err := selfupdate.Download(info.AssetURL, tmpBinary); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Fprintln(out, "Verifying checksum...")
	if err := selfupdate.VerifyChecksum(tmpBinary, info.ChecksumURL); err != nil {
		return fmt.Errorf("checksum verification failed: %w", err)
	}

	current, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate current binary: %w", err)
	}
	if current, err = filepath.EvalSymlinks(current); err != nil {
		return fmt.Errorf("failed to resolve current binary: %w", err)
	}

	if err := selfupdate.Install(current, tmpBinary); err != nil {
		return err
	}

	fmt.Fprintf(out, "Updated to %s\n", info.LatestVersion)
	return nil
}
