package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf})

	l.Debug("hidden")
	l.Info("visible", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message logged at info level")
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "key=value") {
		t.Errorf("info message missing from output: %q", out)
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf, JSON: true})

	l.Info("hello", "n", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf})

	l.SetLevel(LevelDebug)
	l.Debug("now visible")

	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug message missing after SetLevel(debug)")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf}).WithComponent("fetcher")

	l.Info("msg")

	if !strings.Contains(buf.String(), "component=fetcher") {
		t.Errorf("component field missing: %q", buf.String())
	}
}

func TestCritical(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf})

	l.Critical("recovery restart failed", "service", "zerotier-one")

	out := buf.String()
	if !strings.Contains(out, "severity=CRITICAL") {
		t.Errorf("severity marker missing: %q", out)
	}
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("critical should log at error level: %q", out)
	}
}
