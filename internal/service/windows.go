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
	windowsService = "ZeroTierOneService"
	windowsGUIExe  = "zerotier_desktop_ui.exe"
)

// WindowsController manages ZeroTier One via the service control
// manager: net stop/start for transitions, sc query for status.
type WindowsController struct {
	runner CommandRunner
	wait   time.Duration
	log    *logging.Logger
	sleep  func(time.Duration)
}

// NewWindows creates the Windows controller.
func NewWindows(runner CommandRunner, opts Options, log *logging.Logger) *WindowsController {
	return &WindowsController{
		runner: runner,
		wait:   opts.Wait,
		log:    log.WithComponent("service"),
		sleep:  time.Sleep,
	}
}

func (c *WindowsController) Name() string { return "windows-scm" }

func (c *WindowsController) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	out, err := c.runner.Run(ctx, "sc", "query", windowsService)
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "RUNNING")
}

func (c *WindowsController) Stop(ctx context.Context) error {
	if out, err := c.runner.Run(ctx, "taskkill", "/f", "/im", windowsGUIExe); err != nil {
		c.log.Debug("gui not running or taskkill failed", "output", strings.TrimSpace(string(out)), "error", err)
	}

	out, err := c.runner.Run(ctx, "net", "stop", windowsService)
	if err != nil && !strings.Contains(strings.ToLower(string(out)), "is not started") {
		c.log.Warn("net stop failed", "output", strings.TrimSpace(string(out)), "error", err)
	}

	if !waitUntil(ctx, c.wait, c.sleep, func(ctx context.Context) bool { return !c.IsRunning(ctx) }) {
		return &types.ServiceTimeoutError{Op: "stop", Service: windowsService,
			Err: fmt.Errorf("still running after %s", c.wait)}
	}
	return nil
}

func (c *WindowsController) Start(ctx context.Context) error {
	out, err := c.runner.Run(ctx, "net", "start", windowsService)
	if err != nil && !strings.Contains(strings.ToLower(string(out)), "already been started") {
		return fmt.Errorf("net start failed: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	if !waitUntil(ctx, c.wait, c.sleep, c.IsRunning) {
		return &types.ServiceTimeoutError{Op: "start", Service: windowsService,
			Err: fmt.Errorf("not running after %s", c.wait)}
	}
	return nil
}

func (c *WindowsController) Restart(ctx context.Context) error {
	if err := c.Stop(ctx); err != nil {
		return err
	}
	c.sleep(restartGap)
	return c.Start(ctx)
}

func (c *WindowsController) RoleInfo(ctx context.Context) (types.RoleState, string) {
	return peersRole(ctx, c.runner)
}
