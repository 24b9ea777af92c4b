package service

import (
	"fmt"

	"github.com/adamancini/planetsync/internal/logging"
)

// Select returns the controller for the given GOOS. Selection happens
// at runtime rather than through build tags so every platform's logic
// stays testable from any host.
func Select(goos string, runner CommandRunner, opts Options, log *logging.Logger) (Controller, error) {
	switch goos {
	case "darwin":
		return NewLaunchd(runner, opts, log), nil
	case "windows":
		return NewWindows(runner, opts, log), nil
	case "linux":
		return NewSystemd(runner, opts, log), nil
	default:
		return nil, fmt.Errorf("unsupported platform %q: no service controller available", goos)
	}
}
