package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adamancini/planetsync/internal/logging"
	"github.com/adamancini/planetsync/internal/types"
)

const systemdUnit = "zerotier-one"

// SystemdController manages ZeroTier One through systemctl.
type SystemdController struct {
	runner CommandRunner
	wait   time.Duration
	log    *logging.Logger
	sleep  func(time.Duration)
}

// NewSystemd creates the Linux controller.
func NewSystemd(runner CommandRunner, opts Options, log *logging.Logger) *SystemdController {
	return &SystemdController{
		runner: runner,
		wait:   opts.Wait,
		log:    log.WithComponent("service"),
		sleep:  time.Sleep,
	}
}

func (c *SystemdController) Name() string { return "systemd" }

func (c *SystemdController) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	out, err := c.runner.Run(ctx, "systemctl", "is-active", systemdUnit)
	return err == nil && strings.TrimSpace(string(out)) == "active"
}

func (c *SystemdController) Stop(ctx context.Context) error {
	if out, err := c.runner.Run(ctx, "systemctl", "stop", systemdUnit); err != nil {
		c.log.Warn("systemctl stop failed", "output", strings.TrimSpace(string(out)), "error", err)
	}

	if !waitUntil(ctx, c.wait, c.sleep, func(ctx context.Context) bool { return !c.IsRunning(ctx) }) {
		return &types.ServiceTimeoutError{Op: "stop", Service: systemdUnit,
			Err: fmt.Errorf("still running after %s", c.wait)}
	}
	return nil
}

func (c *SystemdController) Start(ctx context.Context) error {
	if out, err := c.runner.Run(ctx, "systemctl", "start", systemdUnit); err != nil {
		return fmt.Errorf("systemctl start failed: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	if !waitUntil(ctx, c.wait, c.sleep, c.IsRunning) {
		return &types.ServiceTimeoutError{Op: "start", Service: systemdUnit,
			Err: fmt.Errorf("not active after %s", c.wait)}
	}
	return nil
}

func (c *SystemdController) Restart(ctx context.Context) error {
	if err := c.Stop(ctx); err != nil {
		return err
	}
	c.sleep(restartGap)
	return c.Start(ctx)
}

func (c *SystemdController) RoleInfo(ctx context.Context) (types.RoleState, string) {
	return peersRole(ctx, c.runner)
}
