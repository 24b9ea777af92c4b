// Package types provides type-safe constants and the error taxonomy for
// planetsync.
//
// This package centralizes the enumerated types and error kinds used
// throughout the codebase, replacing magic strings with typed constants
// that provide compile-time safety and validation methods.
package types

import (
	"fmt"
	"strings"
)

// CycleResult represents the outcome of one check/update cycle.
type CycleResult string

const (
	// ResultNoChange indicates the remote IP list matched the cached
	// fingerprint; nothing was touched.
	ResultNoChange CycleResult = "no-change"
	// ResultUpdated indicates the planet file was replaced and the
	// service restarted and verified.
	ResultUpdated CycleResult = "updated"
	// ResultFailed indicates the cycle failed before any change to the
	// live file, or after an unrecoverable rollback failure.
	ResultFailed CycleResult = "failed"
	// ResultRolledBack indicates the replacement was reverted and the
	// original planet file restored.
	ResultRolledBack CycleResult = "rolled-back"
)

// AllCycleResults returns all valid cycle results.
func AllCycleResults() []CycleResult {
	return []CycleResult{ResultNoChange, ResultUpdated, ResultFailed, ResultRolledBack}
}

// Validate checks if the CycleResult is a valid value.
func (r CycleResult) Validate() error {
	switch r {
	case ResultNoChange, ResultUpdated, ResultFailed, ResultRolledBack:
		return nil
	case "":
		return fmt.Errorf("cycle result is required")
	default:
		return fmt.Errorf("invalid cycle result '%s'", r)
	}
}

// String returns the string representation of the CycleResult.
func (r CycleResult) String() string {
	return string(r)
}

// ExitCode maps the cycle result to a process exit code for the CLI.
// no-change and updated are both success; rolled-back signals that the
// host was left in its prior known-good state.
func (r CycleResult) ExitCode() int {
	switch r {
	case ResultNoChange, ResultUpdated:
		return 0
	case ResultRolledBack:
		return 2
	default:
		return 1
	}
}

// ParseCycleResult parses a string into a CycleResult.
func ParseCycleResult(s string) (CycleResult, error) {
	r := CycleResult(strings.ToLower(s))
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// RoleState represents the root-server role reported by the running
// service after a restart.
type RoleState string

const (
	// RolePlanet indicates the service reports a PLANET peer, meaning
	// the replacement root-server definition was loaded.
	RolePlanet RoleState = "planet"
	// RoleAbsent indicates the peer query succeeded but no PLANET role
	// was present.
	RoleAbsent RoleState = "absent"
	// RoleUnknown indicates the query mechanism itself was unavailable.
	// This is not a hard failure.
	RoleUnknown RoleState = "unknown"
)

// String returns the string representation of the RoleState.
func (r RoleState) String() string {
	return string(r)
}
