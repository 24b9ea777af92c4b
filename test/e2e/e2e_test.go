// Package e2e exercises the full update pipeline against a fake
// remote server and a scripted service, from a config file on disk
// down to the bytes of the planet file.
package e2e

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamancini/planetsync/internal/config"
	"github.com/adamancini/planetsync/internal/logging"
	"github.com/adamancini/planetsync/internal/orchestrator"
	"github.com/adamancini/planetsync/internal/service"
	"github.com/adamancini/planetsync/internal/state"
	"github.com/adamancini/planetsync/internal/types"
)

const originalPlanet = "original planet file bytes, version 1"

// fakeSystem scripts the systemctl/zerotier-cli commands the systemd
// controller issues, tracking service liveness across stop/start.
type fakeSystem struct {
	running    atomic.Bool
	startFails atomic.Int32 // remaining `systemctl start` calls that fail
	peersOut   string
}

func newFakeSystem() *fakeSystem {
	f := &fakeSystem{peersOut: "200 peers\nabcdef1234 1.14.0 PLANET"}
	f.running.Store(true)
	return f
}

func (f *fakeSystem) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	call := strings.Join(append([]string{name}, args...), " ")
	switch call {
	case "systemctl stop zerotier-one":
		f.running.Store(false)
		return nil, nil
	case "systemctl start zerotier-one":
		if f.startFails.Load() > 0 {
			f.startFails.Add(-1)
			return []byte("Job for zerotier-one.service failed."), fmt.Errorf("exit status 1")
		}
		f.running.Store(true)
		return nil, nil
	case "systemctl is-active zerotier-one":
		if f.running.Load() {
			return []byte("active\n"), nil
		}
		return []byte("inactive\n"), fmt.Errorf("exit status 3")
	case "zerotier-cli peers":
		return []byte(f.peersOut), nil
	}
	return nil, fmt.Errorf("unscripted command: %s", call)
}

// env is one fully wired test installation.
type env struct {
	cfg        *config.Config
	orch       *orchestrator.Orchestrator
	system     *fakeSystem
	planetPath string
	ipsBody    *atomic.Value // string served by /ips
	ipsCalls   *atomic.Int32
	planetGets *atomic.Int32
}

func (e *env) setIPs(ips string) { e.ipsBody.Store(ips) }

// setupEnv stands up the remote server, writes a config file, loads
// it through the normal config path, and wires the orchestrator on a
// scripted systemd controller.
func setupEnv(t *testing.T, ips string, artifact []byte, planetStatus int) *env {
	t.Helper()

	var ipsCalls, planetGets atomic.Int32
	var ipsBody atomic.Value
	ipsBody.Store(ips)

	mux := http.NewServeMux()
	mux.HandleFunc("/ips", func(w http.ResponseWriter, r *http.Request) {
		ipsCalls.Add(1)
		if r.URL.Query().Get("key") != "e2e-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(ipsBody.Load().(string)))
	})
	mux.HandleFunc("/planet", func(w http.ResponseWriter, r *http.Request) {
		planetGets.Add(1)
		if planetStatus != http.StatusOK {
			w.WriteHeader(planetStatus)
			return
		}
		_, _ = w.Write(artifact)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	planetPath := filepath.Join(dir, "planet")
	if err := os.WriteFile(planetPath, []byte(originalPlanet), 0o644); err != nil {
		t.Fatal(err)
	}

	configFile := filepath.Join(dir, "planetsync.toml")
	configBody := fmt.Sprintf(`api_key = "e2e-key"
base_url = %q
planet_path = %q
state_path = %q
max_retries = 3
min_artifact_size = 16
verify_attempts = 2
verify_delay = 0
service_timeout = 3
`, srv.URL, planetPath, filepath.Join(dir, "state.json"))
	if err := os.WriteFile(configFile, []byte(configBody), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}

	log := logging.New(logging.Config{Level: logging.LevelError, Output: &strings.Builder{}})
	system := newFakeSystem()
	svc := service.NewSystemd(system, service.Options{Wait: cfg.ServiceWait()}, log)

	return &env{
		cfg:        cfg,
		orch:       orchestrator.New(cfg, svc, log),
		system:     system,
		planetPath: planetPath,
		ipsBody:    &ipsBody,
		ipsCalls:   &ipsCalls,
		planetGets: &planetGets,
	}
}

func (e *env) planetBytes(t *testing.T) string {
	t.Helper()
	content, err := os.ReadFile(e.planetPath)
	if err != nil {
		t.Fatal(err)
	}
	return string(content)
}

// A changed IP set ends with the artifact installed, the service
// restarted, and the fingerprint committed; an immediate second cycle
// is a no-op.
func TestUpdateThenIdempotentRecheck(t *testing.T) {
	artifact := []byte(strings.Repeat("planet v2 ", 220)) // ~2KB
	e := setupEnv(t, "198.51.100.1\n203.0.113.7\n", artifact, http.StatusOK)

	out := e.orch.RunCycle(context.Background(), false)
	if out.Result != types.ResultUpdated {
		t.Fatalf("first cycle = %v, want %v (reason: %s, err: %v)",
			out.Result, types.ResultUpdated, out.Reason, out.Err)
	}
	if got := e.planetBytes(t); got != string(artifact) {
		t.Fatalf("planet file = %d bytes of %q..., want the downloaded artifact", len(got), got[:16])
	}
	if !e.system.running.Load() {
		t.Error("service not running after update")
	}

	// A backup of the original must exist.
	backups, err := filepath.Glob(e.planetPath + ".backup_*")
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("got %d backups, want 1", len(backups))
	}
	if content, _ := os.ReadFile(backups[0]); string(content) != originalPlanet {
		t.Error("backup does not hold the original planet bytes")
	}

	// Second cycle: same remote set, nothing may happen.
	gets := e.planetGets.Load()
	out = e.orch.RunCycle(context.Background(), false)
	if out.Result != types.ResultNoChange {
		t.Fatalf("second cycle = %v, want %v", out.Result, types.ResultNoChange)
	}
	if e.planetGets.Load() != gets {
		t.Error("artifact re-downloaded on a no-change cycle")
	}
}

// Reordering the remote list without changing membership is not a
// change.
func TestReorderedListIsNoChange(t *testing.T) {
	e := setupEnv(t, "10.0.0.2\n10.0.0.1\n", []byte(strings.Repeat("x", 64)), http.StatusOK)

	st := state.NewStore(e.cfg.StatePath)
	first := e.orch.RunCycle(context.Background(), false)
	if first.Result != types.ResultUpdated {
		t.Fatalf("bootstrap cycle = %v, want %v", first.Result, types.ResultUpdated)
	}

	cached, err := st.Load()
	if err != nil {
		t.Fatal(err)
	}

	// Same membership, different order.
	e.setIPs("10.0.0.1\n10.0.0.2\n")
	out := e.orch.RunCycle(context.Background(), false)
	if out.Result != types.ResultNoChange {
		t.Fatalf("cycle = %v, want %v", out.Result, types.ResultNoChange)
	}
	after, err := st.Load()
	if err != nil {
		t.Fatal(err)
	}
	if after.Fingerprint != cached.Fingerprint {
		t.Error("fingerprint changed on a reordered-only remote list")
	}
}

// Persistent download failures exhaust exactly max_retries attempts
// and leave both the planet file and the cached state untouched.
func TestDownloadFailureBoundedRetries(t *testing.T) {
	e := setupEnv(t, "192.0.2.10\n", nil, http.StatusBadGateway)

	start := time.Now()
	out := e.orch.RunCycle(context.Background(), false)
	elapsed := time.Since(start)

	if out.Result != types.ResultFailed {
		t.Fatalf("cycle = %v, want %v", out.Result, types.ResultFailed)
	}
	if got := e.planetGets.Load(); got != 3 {
		t.Errorf("download attempted %d times, want exactly max_retries=3", got)
	}
	if got := e.planetBytes(t); got != originalPlanet {
		t.Error("planet file modified on a failed download")
	}
	if _, err := os.Stat(e.cfg.StatePath); !os.IsNotExist(err) {
		t.Error("state committed on a failed download")
	}
	// Backoff between 3 attempts is 1s + 2s.
	if elapsed < 2*time.Second {
		t.Errorf("cycle finished in %s, want backoff between attempts", elapsed)
	}
}

// A restart failure after replacement restores the exact original
// bytes and brings the service back up on them.
func TestRestartFailureRollsBack(t *testing.T) {
	artifact := []byte(strings.Repeat("broken planet ", 40))
	e := setupEnv(t, "192.0.2.20\n", artifact, http.StatusOK)
	e.system.startFails.Store(1)

	out := e.orch.RunCycle(context.Background(), false)
	if out.Result != types.ResultRolledBack {
		t.Fatalf("cycle = %v, want %v (reason: %s, err: %v)",
			out.Result, types.ResultRolledBack, out.Reason, out.Err)
	}
	if got := e.planetBytes(t); got != originalPlanet {
		t.Errorf("planet file = %q, want the original bytes restored", got)
	}
	if !e.system.running.Load() {
		t.Error("service not running after rollback recovery")
	}

	// Rollback consumed the backup; the fingerprint was never
	// committed, so the next cycle tries again.
	st, err := state.NewStore(e.cfg.StatePath).Load()
	if err != nil {
		t.Fatal(err)
	}
	if st.Fingerprint != "" {
		t.Error("fingerprint committed despite rollback")
	}
}

// An artifact below the size floor is rejected without retries and
// without touching the live file.
func TestUndersizedArtifactRejected(t *testing.T) {
	e := setupEnv(t, "192.0.2.30\n", []byte("tiny"), http.StatusOK)

	out := e.orch.RunCycle(context.Background(), false)
	if out.Result != types.ResultFailed {
		t.Fatalf("cycle = %v, want %v", out.Result, types.ResultFailed)
	}
	var invalid *types.InvalidArtifactError
	if !errors.As(out.Err, &invalid) {
		t.Errorf("cycle error = %v, want *types.InvalidArtifactError", out.Err)
	}
	if got := e.planetGets.Load(); got != 1 {
		t.Errorf("undersized artifact fetched %d times, want 1 (no retries)", got)
	}
	if got := e.planetBytes(t); got != originalPlanet {
		t.Error("planet file modified by an undersized artifact")
	}
}
