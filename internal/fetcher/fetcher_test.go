package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamancini/planetsync/internal/config"
	"github.com/adamancini/planetsync/internal/logging"
	"github.com/adamancini/planetsync/internal/types"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.APIKey = "test-key"
	cfg.BaseURL = baseURL
	cfg.PlanetPath = "/tmp/planet"
	cfg.MinArtifactSize = 64
	return cfg
}

func testFetcher(cfg *config.Config) *Fetcher {
	f := New(cfg, logging.New(logging.Config{Level: logging.LevelError, Output: io.Discard}))
	f.sleep = func(time.Duration) {} // no real backoff in tests
	return f
}

func TestFetchSuccess(t *testing.T) {
	artifact := bytes.Repeat([]byte{0xAB}, 2048)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(artifact)
	}))
	defer srv.Close()

	f := testFetcher(testConfig(srv.URL))
	got, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !bytes.Equal(got, artifact) {
		t.Errorf("Fetch() returned %d bytes, want %d", len(got), len(artifact))
	}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write(bytes.Repeat([]byte{0x01}, 128))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 3
	f := testFetcher(cfg)

	if _, err := f.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch() error = %v, want success on third attempt", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d requests, want 3", calls.Load())
	}
}

func TestFetchRetryBound(t *testing.T) {
	// Sustained failure: exactly MaxRetries attempts, then NetworkError.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 3
	f := testFetcher(cfg)

	_, err := f.Fetch(context.Background())
	var netErr *types.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Fetch() error = %v, want *types.NetworkError", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d requests, want exactly 3", calls.Load())
	}
}

func TestFetchTooSmallNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("tiny"))
	}))
	defer srv.Close()

	f := testFetcher(testConfig(srv.URL))
	_, err := f.Fetch(context.Background())

	var invalid *types.InvalidArtifactError
	if !errors.As(err, &invalid) {
		t.Fatalf("Fetch() error = %v, want *types.InvalidArtifactError", err)
	}
	if invalid.Size != 4 {
		t.Errorf("reported size = %d, want 4", invalid.Size)
	}
	if calls.Load() != 1 {
		t.Errorf("invalid artifact retried: %d requests, want 1", calls.Load())
	}
}

func TestFetchEmptyBodyInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := testFetcher(testConfig(srv.URL))
	_, err := f.Fetch(context.Background())

	var invalid *types.InvalidArtifactError
	if !errors.As(err, &invalid) {
		t.Fatalf("Fetch() error = %v, want *types.InvalidArtifactError", err)
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
	}

	for _, tt := range tests {
		if got := backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
