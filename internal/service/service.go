// Package service controls the ZeroTier One client service across
// platforms.
//
// Each platform gets one Controller implementation that knows its
// native control surface: launchd on macOS, the Windows service
// manager, systemd on Linux. Callers hold the interface and never
// branch on the platform themselves.
package service

import (
	"context"
	"time"

	"github.com/adamancini/planetsync/internal/types"
)

// statusTimeout bounds status queries so IsRunning can never hang a
// cycle on a wedged service manager.
const statusTimeout = 5 * time.Second

// restartGap is the settle time between stop completing and start
// being issued.
const restartGap = 2 * time.Second

// pollInterval is how often stop/start transitions are re-checked
// while waiting for the service to reach the desired state.
const pollInterval = time.Second

// Controller is the capability set for managing the target service.
type Controller interface {
	// Name identifies the platform variant, e.g. "launchd".
	Name() string

	// Stop halts the service and waits (bounded) for it to exit.
	Stop(ctx context.Context) error

	// Start launches the service and waits (bounded) for it to run.
	Start(ctx context.Context) error

	// Restart stops then starts the service. Fails with a
	// ServiceTimeoutError if either transition exceeds its bound.
	Restart(ctx context.Context) error

	// IsRunning queries the process/service table. Always a fresh
	// query, never cached, and bounded by a short fixed timeout.
	IsRunning(ctx context.Context) bool

	// RoleInfo asks the running service for its root-server role so a
	// caller can verify the planet file was actually loaded. Returns
	// RoleUnknown when the query mechanism itself is unavailable;
	// that is not a hard failure.
	RoleInfo(ctx context.Context) (types.RoleState, string)
}

// Options carries the timing bounds shared by all controllers.
type Options struct {
	// Wait bounds each stop/start transition.
	Wait time.Duration
}

// waitUntil polls cond every pollInterval until it returns true or the
// bound elapses. The bound is counted in poll attempts rather than
// wall-clock reads, and sleep is injectable, so tests run without real
// delays.
func waitUntil(ctx context.Context, bound time.Duration, sleep func(time.Duration), cond func(context.Context) bool) bool {
	attempts := int(bound/pollInterval) + 1
	for i := 0; i < attempts; i++ {
		if cond(ctx) {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		sleep(pollInterval)
	}
	return false
}
