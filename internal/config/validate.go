package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the config for required fields and valid values.
func Validate(c *Config) error {
	var errors []string

	if c.APIKey == "" {
		errors = append(errors, ValidationError{"api_key", "is required (or set PLANETSYNC_API_KEY)"}.Error())
	}

	if c.BaseURL == "" {
		errors = append(errors, ValidationError{"base_url", "is required (or set PLANETSYNC_BASE_URL)"}.Error())
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, ValidationError{"base_url", fmt.Sprintf("not a valid URL: %s", c.BaseURL)}.Error())
	}

	if c.CheckInterval <= 0 {
		errors = append(errors, ValidationError{"check_interval", "must be a positive number of seconds"}.Error())
	}

	if c.DownloadTimeout <= 0 {
		errors = append(errors, ValidationError{"download_timeout", "must be a positive number of seconds"}.Error())
	}

	if c.MaxRetries < 1 {
		errors = append(errors, ValidationError{"max_retries", "must be at least 1"}.Error())
	}

	if c.MinArtifactSize < 1 {
		errors = append(errors, ValidationError{"min_artifact_size", "must be at least 1 byte"}.Error())
	}

	if c.PlanetPath == "" {
		errors = append(errors, ValidationError{"planet_path", "is required on this OS (no default location known)"}.Error())
	}

	if c.StatePath == "" {
		errors = append(errors, ValidationError{"state_path", "is required"}.Error())
	}

	if c.BackupKeep < 0 {
		errors = append(errors, ValidationError{"backup_keep", "must be non-negative"}.Error())
	}

	if c.VerifyAttempts < 1 {
		errors = append(errors, ValidationError{"verify_attempts", "must be at least 1"}.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
