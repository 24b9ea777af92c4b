package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adamancini/planetsync/internal/config"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "plain error", err: errors.New("boom"), want: 1},
		{name: "failed cycle", err: &exitError{code: 1}, want: 1},
		{name: "rolled back cycle", err: &exitError{code: 2}, want: 2},
		{name: "wrapped exit error", err: errors.Join(errors.New("ctx"), &exitError{code: 2}), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCycleReportString(t *testing.T) {
	rep := cycleReport{
		Result:      "updated",
		Reason:      "planet file updated and service verified",
		Fingerprint: "abc123",
		Added:       []string{"1.2.3.4"},
		Removed:     []string{"5.6.7.8"},
	}

	s := rep.String()
	for _, want := range []string{"Result: updated", "Fingerprint: abc123", "Added: 1.2.3.4", "Removed: 5.6.7.8"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestStatusReportString(t *testing.T) {
	rep := statusReport{
		PlanetPath:   "/var/lib/zerotier-one/planet",
		PlanetExists: true,
		PlanetSize:   4096,
		Fingerprint:  "deadbeef",
		Backups:      2,
		ServiceState: "running",
		ServiceRole:  "planet",
	}

	s := rep.String()
	for _, want := range []string{"/var/lib/zerotier-one/planet", "4096", "deadbeef", "running"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}

	empty := statusReport{PlanetPath: "/tmp/planet", ServiceState: "unknown"}
	if !strings.Contains(empty.String(), "never checked") {
		t.Errorf("String() = %q, want a never-checked marker", empty.String())
	}
}

func TestInitWritesTemplate(t *testing.T) {
	t.Setenv("PLANETSYNC_API_KEY", "init-test-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "planetsync.toml")

	cmd := newInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--template", "minimal", "--path", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("init error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "init-test-key") {
		t.Errorf("written config missing expanded api key:\n%s", content)
	}

	cfg, err := config.Parse(content, path)
	if err != nil {
		t.Fatalf("written config does not parse: %v", err)
	}
	if cfg.APIKey != "init-test-key" {
		t.Errorf("api_key = %q, want expanded value", cfg.APIKey)
	}
}

func TestInitRefusesOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planetsync.toml")
	if err := os.WriteFile(path, []byte("existing"), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := newInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--path", path})

	// Not a TTY under go test, so the command must fail instead of
	// prompting.
	if err := cmd.Execute(); err == nil {
		t.Fatal("init overwrote an existing config without --force")
	}

	content, _ := os.ReadFile(path)
	if string(content) != "existing" {
		t.Error("existing config was modified")
	}
}

func TestInitForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planetsync.toml")
	if err := os.WriteFile(path, []byte("existing"), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := newInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--path", path, "--force"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("init --force error = %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) == "existing" {
		t.Error("config not overwritten despite --force")
	}
}
