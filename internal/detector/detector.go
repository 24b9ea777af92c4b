// Package detector decides whether a planet update is needed by
// comparing the remote IP list against the last known fingerprint.
package detector

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/adamancini/planetsync/internal/config"
	"github.com/adamancini/planetsync/internal/ipset"
	"github.com/adamancini/planetsync/internal/types"
)

// Result is one change-detection outcome.
type Result struct {
	Changed     bool
	Fingerprint string
	IPs         []string
	Added       []string
	Removed     []string
}

// Detector fetches the remote IP list and fingerprints it.
// It never retries on its own; retry policy belongs to the caller.
type Detector struct {
	cfg    *config.Config
	client *http.Client
}

// New creates a detector bound to the given config.
func New(cfg *config.Config) *Detector {
	return &Detector{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

// Detect fetches the remote IP list, normalizes and fingerprints it,
// and compares against lastFingerprint and lastIPs (the cached
// baseline). An empty lastFingerprint counts as changed: the bootstrap
// case, where no baseline exists yet.
func (d *Detector) Detect(ctx context.Context, lastFingerprint string, lastIPs []string) (*Result, error) {
	content, err := d.fetchIPs(ctx)
	if err != nil {
		return nil, err
	}

	ips := ipset.Parse(content)
	fp := ipset.Fingerprint(ips)

	res := &Result{
		Fingerprint: fp,
		IPs:         ips,
	}

	if lastFingerprint == "" || fp != lastFingerprint {
		res.Changed = true
		res.Added, res.Removed = ipset.Diff(lastIPs, ips)
	}

	return res, nil
}

// fetchIPs performs a single GET of the IP list endpoint.
func (d *Detector) fetchIPs(ctx context.Context) (string, error) {
	url := d.cfg.IPsURL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", &types.NetworkError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &types.NetworkError{URL: url, Err: fmt.Errorf("server returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &types.NetworkError{URL: url, Err: err}
	}

	return string(body), nil
}
