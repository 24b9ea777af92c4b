package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adamancini/planetsync/internal/logging"
	"github.com/adamancini/planetsync/internal/types"
)

const (
	launchdLabel = "com.zerotier.one"
	launchdPlist = "/Library/LaunchDaemons/com.zerotier.one.plist"
	darwinGUIApp = "/Applications/ZeroTier.app"
)

// LaunchdController manages ZeroTier One on macOS: launchctl for the
// daemon, pkill/open for the GUI app that ships alongside it.
type LaunchdController struct {
	runner CommandRunner
	wait   time.Duration
	log    *logging.Logger
	sleep  func(time.Duration)
}

// NewLaunchd creates the macOS controller.
func NewLaunchd(runner CommandRunner, opts Options, log *logging.Logger) *LaunchdController {
	return &LaunchdController{
		runner: runner,
		wait:   opts.Wait,
		log:    log.WithComponent("service"),
		sleep:  time.Sleep,
	}
}

func (c *LaunchdController) Name() string { return "launchd" }

func (c *LaunchdController) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	out, err := c.runner.Run(ctx, "launchctl", "list", launchdLabel)
	if err == nil && strings.Contains(string(out), "PID") {
		return true
	}

	// launchctl can be ambiguous about on-demand jobs; the CLI
	// answering at all means the daemon is up.
	if _, err := c.runner.Run(ctx, "zerotier-cli", "info"); err == nil {
		return true
	}

	return false
}

func (c *LaunchdController) Stop(ctx context.Context) error {
	// GUI first so it doesn't resurrect the daemon connection.
	if _, err := c.runner.Run(ctx, "pkill", "-f", darwinGUIApp); err != nil {
		c.log.Debug("gui not running or pkill failed", "error", err)
	}

	if out, err := c.runner.Run(ctx, "launchctl", "unload", launchdPlist); err != nil {
		c.log.Warn("launchctl unload failed", "output", strings.TrimSpace(string(out)), "error", err)
	}

	if !waitUntil(ctx, c.wait, c.sleep, func(ctx context.Context) bool { return !c.IsRunning(ctx) }) {
		return &types.ServiceTimeoutError{Op: "stop", Service: launchdLabel,
			Err: fmt.Errorf("still running after %s", c.wait)}
	}
	return nil
}

func (c *LaunchdController) Start(ctx context.Context) error {
	out, err := c.runner.Run(ctx, "launchctl", "load", launchdPlist)
	if err != nil && !strings.Contains(strings.ToLower(string(out)), "service already loaded") {
		return fmt.Errorf("launchctl load failed: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	if !waitUntil(ctx, c.wait, c.sleep, c.IsRunning) {
		return &types.ServiceTimeoutError{Op: "start", Service: launchdLabel,
			Err: fmt.Errorf("not running after %s", c.wait)}
	}

	// The GUI is cosmetic; a failure here never fails the start.
	if _, err := c.runner.Run(ctx, "open", darwinGUIApp); err != nil {
		c.log.Warn("failed to launch GUI app", "error", err)
	}

	return nil
}

func (c *LaunchdController) Restart(ctx context.Context) error {
	if err := c.Stop(ctx); err != nil {
		return err
	}
	c.sleep(restartGap)
	return c.Start(ctx)
}

func (c *LaunchdController) RoleInfo(ctx context.Context) (types.RoleState, string) {
	return peersRole(ctx, c.runner)
}

// peersRole inspects `zerotier-cli peers` output for a PLANET role.
// Shared by all platform controllers; the CLI speaks the same dialect
// everywhere.
func peersRole(ctx context.Context, runner CommandRunner) (types.RoleState, string) {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	out, err := runner.Run(ctx, "zerotier-cli", "peers")
	if err != nil {
		return types.RoleUnknown, fmt.Sprintf("peer query unavailable: %v", err)
	}

	if strings.Contains(strings.ToUpper(string(out)), "PLANET") {
		return types.RolePlanet, "PLANET role present in peer list"
	}
	return types.RoleAbsent, "no PLANET role in peer list"
}
