// Package orchestrator drives the update cycle: detect a change,
// fetch the new planet file, replace it on disk, restart the service,
// and verify the result, rolling back when the tail end fails.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/looplab/fsm"

	"github.com/adamancini/planetsync/internal/backup"
	"github.com/adamancini/planetsync/internal/config"
	"github.com/adamancini/planetsync/internal/detector"
	"github.com/adamancini/planetsync/internal/fetcher"
	"github.com/adamancini/planetsync/internal/logging"
	"github.com/adamancini/planetsync/internal/replacer"
	"github.com/adamancini/planetsync/internal/service"
	"github.com/adamancini/planetsync/internal/state"
	"github.com/adamancini/planetsync/internal/types"
)

// Cycle states. Every cycle starts at idle and ends in one of the
// three terminal states (idle again for no-change, succeeded,
// rolledback, or failed).
const (
	StateIdle       = "idle"
	StateChecking   = "checking"
	StateFetching   = "fetching"
	StateReplacing  = "replacing"
	StateRestarting = "restarting"
	StateVerifying  = "verifying"
	StateSucceeded  = "succeeded"
	StateRolledBack = "rolledback"
	StateFailed     = "failed"
)

const (
	eventCheck    = "check"
	eventNoChange = "no_change"
	eventFetch    = "fetch"
	eventReplace  = "replace"
	eventRestart  = "restart"
	eventVerify   = "verify"
	eventSucceed  = "succeed"
	eventRollback = "rollback"
	eventFail     = "fail"
)

// Outcome is the result of one update cycle.
type Outcome struct {
	Result      types.CycleResult
	Reason      string
	Err         error
	Fingerprint string
	Added       []string
	Removed     []string
}

// Orchestrator owns one target planet file and its service.
type Orchestrator struct {
	cfg      *config.Config
	detector *detector.Detector
	fetcher  *fetcher.Fetcher
	replacer *replacer.Replacer
	svc      service.Controller
	store    *state.Store
	log      *logging.Logger

	sleep func(time.Duration)
	now   func() time.Time
}

// New wires an orchestrator from config and a platform controller.
func New(cfg *config.Config, svc service.Controller, log *logging.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		detector: detector.New(cfg),
		fetcher:  fetcher.New(cfg, log),
		replacer: replacer.New(log),
		svc:      svc,
		store:    state.NewStore(cfg.StatePath),
		log:      log.WithComponent("orchestrator"),
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// newCycleFSM builds a fresh state machine for a single cycle.
func (o *Orchestrator) newCycleFSM() *fsm.FSM {
	events := fsm.Events{
		{Name: eventCheck, Src: []string{StateIdle}, Dst: StateChecking},
		{Name: eventNoChange, Src: []string{StateChecking}, Dst: StateIdle},
		{Name: eventFetch, Src: []string{StateChecking}, Dst: StateFetching},
		{Name: eventReplace, Src: []string{StateFetching}, Dst: StateReplacing},
		{Name: eventRestart, Src: []string{StateReplacing}, Dst: StateRestarting},
		{Name: eventVerify, Src: []string{StateRestarting}, Dst: StateVerifying},
		{Name: eventSucceed, Src: []string{StateVerifying}, Dst: StateSucceeded},
		{Name: eventRollback, Src: []string{StateRestarting, StateVerifying}, Dst: StateRolledBack},
		{Name: eventFail, Src: []string{
			StateChecking, StateFetching, StateReplacing, StateRestarting, StateVerifying,
		}, Dst: StateFailed},
	}

	callbacks := fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			o.log.Debug("cycle transition", "from", e.Src, "to", e.Dst)
		},
	}

	return fsm.NewFSM(StateIdle, events, callbacks)
}

// Preflight verifies the update target is usable before any cycle
// runs: the planet file's directory must exist and be writable.
// Catching a bad target here beats failing mid-cycle with a backup
// already taken.
func (o *Orchestrator) Preflight() error {
	dir := filepath.Dir(o.cfg.PlanetPath)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("planet file directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("planet file directory %s is not a directory", dir)
	}
	probe, err := os.CreateTemp(dir, ".planetsync-probe-*")
	if err != nil {
		return &types.PermissionError{Path: dir, Err: err}
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// RunCycle executes one full update cycle. It never leaves the planet
// file half-written: the worst terminal condition is a failed cycle
// with the previous file still (or back) in place.
// force skips the change check and updates unconditionally.
func (o *Orchestrator) RunCycle(ctx context.Context, force bool) *Outcome {
	m := o.newCycleFSM()
	mustStep(ctx, m, eventCheck)

	st, err := o.store.Load()
	if err != nil {
		var corrupt *types.StateCorruptionError
		if errors.As(err, &corrupt) {
			o.log.Warn("state cache unreadable, treating as first run",
				"path", corrupt.Path, "error", corrupt.Err)
		} else {
			o.log.Warn("state load failed", "error", err)
		}
	}

	res, err := o.detector.Detect(ctx, st.Fingerprint, st.IPs)
	if err != nil {
		mustStep(ctx, m, eventFail)
		metricDownloadError.Inc()
		return o.finish(&Outcome{
			Result: types.ResultFailed,
			Reason: "change detection failed",
			Err:    err,
		})
	}
	metricLastCheck.SetToCurrentTime()

	if !res.Changed && !force {
		mustStep(ctx, m, eventNoChange)
		st.LastCheckedAt = o.now()
		if err := o.store.Save(st); err != nil {
			o.log.Warn("state save failed", "error", err)
		}
		return o.finish(&Outcome{
			Result:      types.ResultNoChange,
			Reason:      "remote IP set matches cached fingerprint",
			Fingerprint: res.Fingerprint,
		})
	}

	if res.Changed {
		o.log.Info("change detected",
			"fingerprint", res.Fingerprint,
			"added", res.Added,
			"removed", res.Removed)
	} else {
		o.log.Info("no change detected, updating anyway (forced)")
	}

	mustStep(ctx, m, eventFetch)
	artifact, err := o.fetcher.Fetch(ctx)
	if err != nil {
		mustStep(ctx, m, eventFail)
		metricDownloadError.Inc()
		return o.finish(&Outcome{
			Result: types.ResultFailed,
			Reason: "artifact download failed",
			Err:    err,
		})
	}

	mustStep(ctx, m, eventReplace)
	rec, err := o.replacer.Replace(o.cfg.PlanetPath, artifact)
	if err != nil {
		mustStep(ctx, m, eventFail)
		metricUpdateError.Inc()
		return o.finish(&Outcome{
			Result: types.ResultFailed,
			Reason: "file replacement failed",
			Err:    err,
		})
	}

	mustStep(ctx, m, eventRestart)
	if err := o.svc.Restart(ctx); err != nil {
		return o.recover(ctx, m, rec, res, "service restart failed", err)
	}

	mustStep(ctx, m, eventVerify)
	if err := o.verify(ctx); err != nil {
		return o.recover(ctx, m, rec, res, "post-restart verification failed", err)
	}

	mustStep(ctx, m, eventSucceed)
	now := o.now()
	st.Fingerprint = res.Fingerprint
	st.IPs = res.IPs
	st.LastCheckedAt = now
	st.LastUpdatedAt = now
	if err := o.store.Save(st); err != nil {
		o.log.Warn("state save failed after successful update", "error", err)
	}
	metricLastUpdate.SetToCurrentTime()

	if pruned, err := backup.NewManager(o.cfg.PlanetPath).Prune(o.cfg.BackupKeep); err != nil {
		o.log.Warn("backup prune failed", "error", err)
	} else if len(pruned.Deleted) > 0 {
		o.log.Info("pruned old backups", "deleted", len(pruned.Deleted), "kept", pruned.Kept)
	}

	o.log.Info("planet file updated", "fingerprint", res.Fingerprint)
	return o.finish(&Outcome{
		Result:      types.ResultUpdated,
		Reason:      "planet file updated and service verified",
		Fingerprint: res.Fingerprint,
		Added:       res.Added,
		Removed:     res.Removed,
	})
}

// recover restores the previous planet file and restarts the service
// on it after the new file failed to take. Escalates to a failed cycle
// when the rollback itself cannot complete.
func (o *Orchestrator) recover(ctx context.Context, m *fsm.FSM, rec *backup.Record, res *detector.Result, reason string, cause error) *Outcome {
	metricUpdateError.Inc()
	o.log.Error(reason, "error", cause)

	if err := o.replacer.Rollback(rec); err != nil {
		mustStep(ctx, m, eventFail)
		o.log.Critical("rollback failed, planet file may be inconsistent",
			"backup", rec.BackupPath, "error", err)
		return o.finish(&Outcome{
			Result: types.ResultFailed,
			Reason: reason + "; rollback also failed",
			Err:    errors.Join(cause, err),
		})
	}
	metricRollback.Inc()

	if err := o.svc.Restart(ctx); err != nil {
		mustStep(ctx, m, eventFail)
		o.log.Critical("service not restored after rollback, manual intervention required",
			"error", err)
		return o.finish(&Outcome{
			Result: types.ResultFailed,
			Reason: reason + "; service did not recover on the restored file",
			Err:    errors.Join(cause, err),
		})
	}

	mustStep(ctx, m, eventRollback)
	o.log.Warn("update rolled back, previous planet file restored")
	return o.finish(&Outcome{
		Result:      types.ResultRolledBack,
		Reason:      reason,
		Err:         cause,
		Fingerprint: res.Fingerprint,
	})
}

// verify confirms the service is healthy on the new planet file. A
// PLANET role in the peer list is the strong signal; an unknown role
// (CLI unavailable) is accepted as long as the service itself runs,
// since not every deployment has zerotier-cli on PATH.
func (o *Orchestrator) verify(ctx context.Context) error {
	attempts := o.cfg.VerifyAttempts
	for i := 1; i <= attempts; i++ {
		if o.svc.IsRunning(ctx) {
			role, detail := o.svc.RoleInfo(ctx)
			if role != types.RoleAbsent {
				o.log.Info("service verified", "role", role.String(), "detail", detail)
				return nil
			}
			o.log.Debug("verification attempt: service up but no planet role",
				"attempt", i, "detail", detail)
		} else {
			o.log.Debug("verification attempt: service not running", "attempt", i)
		}
		if i < attempts {
			o.sleep(o.cfg.VerifyWait())
		}
	}
	return fmt.Errorf("service unhealthy after %d verification attempts", attempts)
}

func (o *Orchestrator) finish(out *Outcome) *Outcome {
	metricCycles.WithLabelValues(out.Result.String()).Inc()
	return out
}

// mustStep applies an FSM event whose source state is guaranteed by
// the cycle's control flow. A refusal here is a programming error.
func mustStep(ctx context.Context, m *fsm.FSM, event string) {
	if err := m.Event(ctx, event); err != nil {
		panic(fmt.Sprintf("invalid cycle transition %q from %q: %v", event, m.Current(), err))
	}
}
