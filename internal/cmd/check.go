package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/planetsync/internal/orchestrator"
)

// cycleReport is the structured result of a single update cycle.
type cycleReport struct {
	Result      string   `json:"result" yaml:"result"`
	Reason      string   `json:"reason" yaml:"reason"`
	Fingerprint string   `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Added       []string `json:"added,omitempty" yaml:"added,omitempty"`
	Removed     []string `json:"removed,omitempty" yaml:"removed,omitempty"`
	Error       string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func newCycleReport(out *orchestrator.Outcome) cycleReport {
	rep := cycleReport{
		Result:      out.Result.String(),
		Reason:      out.Reason,
		Fingerprint: out.Fingerprint,
		Added:       out.Added,
		Removed:     out.Removed,
	}
	if out.Err != nil {
		rep.Error = out.Err.Error()
	}
	return rep
}

func (r cycleReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Result: %s", r.Result)
	if r.Reason != "" {
		fmt.Fprintf(&b, "\nReason: %s", r.Reason)
	}
	if r.Fingerprint != "" {
		fmt.Fprintf(&b, "\nFingerprint: %s", r.Fingerprint)
	}
	if len(r.Added) > 0 {
		fmt.Fprintf(&b, "\nAdded: %s", strings.Join(r.Added, ", "))
	}
	if len(r.Removed) > 0 {
		fmt.Fprintf(&b, "\nRemoved: %s", strings.Join(r.Removed, ", "))
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "\nError: %s", r.Error)
	}
	return b.String()
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one update cycle",
		Long: `Check fetches the remote IP list, compares it against the cached
fingerprint, and performs a full update if it changed. With no change
nothing is touched and the command exits 0.

Exit codes:
  0  no change, or update applied and verified
  1  cycle failed
  2  update rolled back`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCycle(cmd, false)
		},
	}
}

// runCycle executes one cycle and maps its outcome to a report and
// exit code. Shared by check and update.
func runCycle(cmd *cobra.Command, force bool) error {
	w, err := newWriter(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	orch, err := newOrchestrator(cfg)
	if err != nil {
		return err
	}
	if err := orch.Preflight(); err != nil {
		return err
	}

	out := orch.RunCycle(cmd.Context(), force)
	if err := w.Write(newCycleReport(out)); err != nil {
		return err
	}

	if code := out.Result.ExitCode(); code != 0 {
		// The report already carries the detail; keep stderr quiet.
		return &exitError{code: code}
	}
	return nil
}
