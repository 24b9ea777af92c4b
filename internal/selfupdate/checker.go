// Package selfupdate checks GitHub releases for a newer planetsync
// build and installs it over the running binary.
package selfupdate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"
)

// Info describes the latest release relative to the running build.
type Info struct {
	Available      bool
	CurrentVersion string
	LatestVersion  string
	ReleaseURL     string
	ReleaseNotes   string
	AssetURL       string
	ChecksumURL    string
}

// Platform is the os/arch pair an asset is built for.
type Platform struct {
	OS   string
	Arch string
}

// DetectPlatform returns the running platform.
func DetectPlatform() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// AssetName returns the release asset name for this platform,
// e.g. "planetsync-linux-amd64".
func (p Platform) AssetName() string {
	name := fmt.Sprintf("planetsync-%s-%s", p.OS, p.Arch)
	if p.OS == "windows" {
		name += ".exe"
	}
	return name
}

// IsSupported reports whether release binaries exist for this platform.
func (p Platform) IsSupported() bool {
	switch p.OS {
	case "darwin", "linux", "windows":
		return p.Arch == "amd64" || p.Arch == "arm64"
	}
	return false
}

// Checker queries the GitHub releases API.
type Checker struct {
	currentVersion string
	token          string
	owner          string
	repo           string
	client         *http.Client
	baseURL        string
}

type githubRelease struct {
	TagName string `json:"tag_name"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// NewChecker creates a checker for the given repository.
func NewChecker(currentVersion, owner, repo string) *Checker {
	return &Checker{
		currentVersion: currentVersion,
		owner:          owner,
		repo:           repo,
		client:         &http.Client{Timeout: 30 * time.Second},
		baseURL:        "https://api.github.com",
	}
}

// WithToken sets an optional GitHub token, mainly for rate limits.
func (c *Checker) WithToken(token string) *Checker {
	c.token = token
	return c
}

// withBaseURL redirects API calls, for tests.
func (c *Checker) withBaseURL(url string) *Checker {
	c.baseURL = url
	return c
}

// Check fetches the latest release and compares it to the running
// version.
func (c *Checker) Check() (*Info, error) {
	release, err := c.latestRelease()
	if err != nil {
		return nil, fmt.Errorf("failed to get latest release: %w", err)
	}

	current, err := ParseVersion(c.currentVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid current version: %w", err)
	}
	latest, err := ParseVersion(release.TagName)
	if err != nil {
		return nil, fmt.Errorf("invalid latest version: %w", err)
	}

	info := &Info{
		Available:      latest.IsGreaterThan(current),
		CurrentVersion: NormalizeVersion(c.currentVersion),
		LatestVersion:  NormalizeVersion(release.TagName),
		ReleaseURL:     release.HTMLURL,
		ReleaseNotes:   release.Body,
	}

	assetName := DetectPlatform().AssetName()
	for _, asset := range release.Assets {
		switch asset.Name {
		case assetName:
			info.AssetURL = asset.BrowserDownloadURL
		case "checksums.txt":
			info.ChecksumURL = asset.BrowserDownloadURL
		}
	}

	return info, nil
}

func (c *Checker) latestRelease() (*githubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &release, nil
}
