// Package config handles planetsync configuration parsing and location
// resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

// Defaults mirror the stock deployment: a five-minute check loop with
// modest retry behavior, keeping the last five planet backups.
const (
	DefaultCheckInterval   = 300 // seconds
	DefaultDownloadTimeout = 30  // seconds
	DefaultMaxRetries      = 3
	DefaultBackupKeep      = 5
	DefaultVerifyAttempts  = 3
	DefaultVerifyDelay     = 2  // seconds
	DefaultServiceTimeout  = 15 // seconds

	// DefaultMinArtifactSize is the smallest plausible planet file in
	// bytes. A response below this is treated as invalid, not written.
	DefaultMinArtifactSize = 512
)

// Config is the immutable per-run configuration. It is owned by the
// caller and never mutated by the update components.
type Config struct {
	// Remote endpoint.
	APIKey  string `yaml:"api_key" toml:"api_key" json:"api_key"`
	BaseURL string `yaml:"base_url" toml:"base_url" json:"base_url"`

	// Monitoring cadence and network bounds, in seconds.
	CheckInterval   int `yaml:"check_interval" toml:"check_interval" json:"check_interval"`
	DownloadTimeout int `yaml:"download_timeout" toml:"download_timeout" json:"download_timeout"`
	MaxRetries      int `yaml:"max_retries" toml:"max_retries" json:"max_retries"`

	// Artifact sanity threshold in bytes.
	MinArtifactSize int64 `yaml:"min_artifact_size" toml:"min_artifact_size" json:"min_artifact_size"`

	// Local paths. Empty values resolve to per-OS defaults.
	PlanetPath string `yaml:"planet_path" toml:"planet_path" json:"planet_path"`
	StatePath  string `yaml:"state_path" toml:"state_path" json:"state_path"`

	// Backup retention for replaced planet files.
	BackupKeep int `yaml:"backup_keep" toml:"backup_keep" json:"backup_keep"`

	// Service control bounds.
	ServiceTimeout int `yaml:"service_timeout" toml:"service_timeout" json:"service_timeout"`
	VerifyAttempts int `yaml:"verify_attempts" toml:"verify_attempts" json:"verify_attempts"`
	VerifyDelay    int `yaml:"verify_delay" toml:"verify_delay" json:"verify_delay"`

	// MetricsAddress enables the Prometheus endpoint in daemon mode
	// when non-empty, e.g. "localhost:9464".
	MetricsAddress string `yaml:"metrics_address" toml:"metrics_address" json:"metrics_address"`
}

// Default returns a Config populated with defaults for the current OS.
func Default() *Config {
	return &Config{
		CheckInterval:   DefaultCheckInterval,
		DownloadTimeout: DefaultDownloadTimeout,
		MaxRetries:      DefaultMaxRetries,
		MinArtifactSize: DefaultMinArtifactSize,
		PlanetPath:      DefaultPlanetPath(runtime.GOOS),
		StatePath:       defaultStatePath(),
		BackupKeep:      DefaultBackupKeep,
		ServiceTimeout:  DefaultServiceTimeout,
		VerifyAttempts:  DefaultVerifyAttempts,
		VerifyDelay:     DefaultVerifyDelay,
	}
}

// DefaultPlanetPath returns the planet file location for the given OS.
// Returns "" for operating systems without a known ZeroTier layout.
func DefaultPlanetPath(goos string) string {
	switch goos {
	case "darwin":
		return "/Library/Application Support/ZeroTier/One/planet"
	case "windows":
		return `C:\ProgramData\ZeroTier\One\planet`
	case "linux":
		return "/var/lib/zerotier-one/planet"
	default:
		return ""
	}
}

// defaultStatePath returns the cached-state file location, following
// XDG conventions with a ~/.cache fallback.
func defaultStatePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "state.json"
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "planetsync", "state.json")
}

// IPsURL returns the remote IP list endpoint.
func (c *Config) IPsURL() string {
	return fmt.Sprintf("%s/ips?key=%s", c.BaseURL, c.APIKey)
}

// PlanetURL returns the planet artifact endpoint.
func (c *Config) PlanetURL() string {
	return fmt.Sprintf("%s/planet?key=%s", c.BaseURL, c.APIKey)
}

// Interval returns the daemon check interval.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.CheckInterval) * time.Second
}

// Timeout returns the per-request download timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.DownloadTimeout) * time.Second
}

// ServiceWait returns the bound for service stop/start transitions.
func (c *Config) ServiceWait() time.Duration {
	return time.Duration(c.ServiceTimeout) * time.Second
}

// VerifyWait returns the delay between post-restart peer checks.
func (c *Config) VerifyWait() time.Duration {
	return time.Duration(c.VerifyDelay) * time.Second
}

// ApplyEnv overlays PLANETSYNC_* environment variables onto the config.
// Unparseable numeric values are ignored rather than fatal.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PLANETSYNC_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("PLANETSYNC_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("PLANETSYNC_CHECK_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CheckInterval = n
		}
	}
	if v := os.Getenv("PLANETSYNC_PLANET_PATH"); v != "" {
		c.PlanetPath = v
	}
}

// FindConfig searches for a config file in the standard locations.
// Returns "" (not an error) when no file exists; defaults plus
// environment variables are a complete configuration on their own.
func FindConfig(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv("PLANETSYNC_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	searchPaths := []string{
		filepath.Join(xdgConfig, "planetsync"),
		home,
		".",
	}

	fileNames := []string{
		"planetsync.toml",
		"planetsync.yaml",
		"planetsync.yml",
		"planetsync.json",
		".planetsync.toml",
		".planetsync.yaml",
	}

	for _, dir := range searchPaths {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", nil
}
