package cmd

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/adamancini/planetsync/internal/config"
	"github.com/adamancini/planetsync/internal/logging"
	"github.com/adamancini/planetsync/internal/orchestrator"
	"github.com/adamancini/planetsync/internal/output"
	"github.com/adamancini/planetsync/internal/service"
)

// Build metadata, set by Execute.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

func setBuildInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
}

// exitError carries a process exit code alongside the cause. Cobra
// only distinguishes zero from non-zero, so main unwraps this to get
// the real code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// loadConfig resolves the effective configuration from the --config
// flag, discovered files, and the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newWriter builds the structured-output writer for a command.
func newWriter(w io.Writer) (*output.Writer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewWriter(w, format), nil
}

// newOrchestrator wires a full orchestrator for the current platform.
func newOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, error) {
	log := logging.Default()
	svc, err := service.Select(runtime.GOOS, &service.DefaultCommandRunner{},
		service.Options{Wait: cfg.ServiceWait()}, log)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(cfg, svc, log), nil
}
