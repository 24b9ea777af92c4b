// Package fetcher downloads the planet artifact with bounded retries.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adamancini/planetsync/internal/config"
	"github.com/adamancini/planetsync/internal/logging"
	"github.com/adamancini/planetsync/internal/types"
)

// Fetcher downloads the planet binary over HTTP.
// It retries transient network failures with exponential backoff, up to
// MaxRetries attempts. Content that fails the sanity check is not
// retried: the server answered, the answer is just unusable.
type Fetcher struct {
	cfg    *config.Config
	client *http.Client
	log    *logging.Logger

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// New creates a fetcher bound to the given config.
func New(cfg *config.Config, log *logging.Logger) *Fetcher {
	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout(),
		},
		log:   log.WithComponent("fetcher"),
		sleep: time.Sleep,
	}
}

// Fetch downloads the planet artifact and returns its bytes. It has no
// filesystem side effects.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	url := f.cfg.PlanetURL()

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}

		var invalid *types.InvalidArtifactError
		if errors.As(err, &invalid) {
			// The server delivered a bad artifact; more attempts this
			// cycle would get the same answer.
			return nil, err
		}

		lastErr = err
		if attempt < f.cfg.MaxRetries {
			wait := backoff(attempt)
			f.log.Warn("planet download failed, retrying",
				"attempt", attempt, "max", f.cfg.MaxRetries, "wait", wait, "error", err)
			select {
			case <-ctx.Done():
				return nil, &types.NetworkError{URL: url, Err: ctx.Err()}
			default:
				f.sleep(wait)
			}
		}
	}

	return nil, &types.NetworkError{URL: url, Err: fmt.Errorf("exhausted %d attempts: %w", f.cfg.MaxRetries, lastErr)}
}

// fetchOnce performs a single download attempt with sanity checks.
func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &types.NetworkError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &types.NetworkError{URL: url, Err: fmt.Errorf("server returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.NetworkError{URL: url, Err: err}
	}

	if int64(len(body)) < f.cfg.MinArtifactSize {
		return nil, &types.InvalidArtifactError{
			Reason: fmt.Sprintf("below minimum plausible size %d", f.cfg.MinArtifactSize),
			Size:   int64(len(body)),
		}
	}

	return body, nil
}

// backoff returns the exponential wait before the next attempt:
// 1s, 2s, 4s, ...
func backoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}
