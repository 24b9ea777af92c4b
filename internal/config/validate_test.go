package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := Default()
	cfg.APIKey = "key"
	cfg.BaseURL = "http://planet.example.com:13000"
	cfg.PlanetPath = "/tmp/planet"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing api key", func(c *Config) { c.APIKey = "" }, "api_key"},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, "base_url"},
		{"malformed base url", func(c *Config) { c.BaseURL = "not a url" }, "base_url"},
		{"zero interval", func(c *Config) { c.CheckInterval = 0 }, "check_interval"},
		{"negative timeout", func(c *Config) { c.DownloadTimeout = -1 }, "download_timeout"},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, "max_retries"},
		{"zero min size", func(c *Config) { c.MinArtifactSize = 0 }, "min_artifact_size"},
		{"missing planet path", func(c *Config) { c.PlanetPath = "" }, "planet_path"},
		{"negative keep", func(c *Config) { c.BackupKeep = -1 }, "backup_keep"},
		{"zero verify attempts", func(c *Config) { c.VerifyAttempts = 0 }, "verify_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestURLs(t *testing.T) {
	cfg := validConfig()

	wantIPs := "http://planet.example.com:13000/ips?key=key"
	if got := cfg.IPsURL(); got != wantIPs {
		t.Errorf("IPsURL() = %s, want %s", got, wantIPs)
	}

	wantPlanet := "http://planet.example.com:13000/planet?key=key"
	if got := cfg.PlanetURL(); got != wantPlanet {
		t.Errorf("PlanetURL() = %s, want %s", got, wantPlanet)
	}
}

func TestDefaultPlanetPath(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "/Library/Application Support/ZeroTier/One/planet"},
		{"windows", `C:\ProgramData\ZeroTier\One\planet`},
		{"linux", "/var/lib/zerotier-one/planet"},
		{"plan9", ""},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			if got := DefaultPlanetPath(tt.goos); got != tt.want {
				t.Errorf("DefaultPlanetPath(%s) = %s, want %s", tt.goos, got, tt.want)
			}
		})
	}
}
