package orchestrator

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/adamancini/planetsync/internal/types"
)

func TestDaemonStopsOnCancel(t *testing.T) {
	r := &remote{ips: "4.4.4.4\n", artifact: []byte("daemon cycle artifact")}
	cfg, _ := testSetup(t, r)
	svc := newFakeController()

	o := testOrchestrator(cfg, svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.RunDaemon(ctx) }()

	// Wait for the first cycle to commit state, then stop the loop.
	deadline := time.After(5 * time.Second)
	for {
		if _, err := os.Stat(cfg.StatePath); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("daemon never completed its first cycle")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunDaemon() error = %v, want nil on cancellation", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after cancellation")
	}
}

func TestDaemonSurvivesFailedCycles(t *testing.T) {
	r := &remote{ips: "4.4.4.4\n", artifact: []byte("never fetched")}
	r.getFails.Store(true)
	cfg, _ := testSetup(t, r)
	svc := newFakeController()

	o := testOrchestrator(cfg, svc)

	// A failed cycle must report failure without killing the loop.
	out := o.RunCycle(context.Background(), false)
	if out.Result != types.ResultFailed {
		t.Fatalf("RunCycle() result = %v, want %v", out.Result, types.ResultFailed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.RunDaemon(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("RunDaemon() error = %v after failed cycles", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after cancellation")
	}
}
