// Package config handles application configuration management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	// Base directory for all cache and log data (~/.bidash)
	BaseDir string

	// HubSpot CRM API settings
	HubSpot HubSpotConfig

	// AWS Athena query service settings
	Athena AthenaConfig

	// PostHog analytics API settings
	PostHog PostHogConfig
}

// HubSpotConfig holds HubSpot API settings.
type HubSpotConfig struct {
	AccessToken string
	BaseURL     string
	PageLimit   int
	// MaxRetries bounds how many times a rate-limited request is reissued.
	MaxRetries int
	// RateLimit is the client-side pacing budget in requests per minute.
	RateLimit int
}

// AthenaConfig holds AWS Athena settings.
type AthenaConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Database        string
	Workgroup       string
	OutputLocation  string
	PollSeconds     int // seconds between query status polls
}

// PostHogConfig holds PostHog API settings.
type PostHogConfig struct {
	APIKey     string
	ProjectID  string
	Host       string
	DaysBack   int
	PersonsCap int
	MaxRetries int
	RateLimit  int // requests per minute
}

// MissingEnvError reports required environment variables that are unset.
type MissingEnvError struct {
	Vars []string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Vars, ", "))
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if dir := os.Getenv("BIDASH_DATA_DIR"); dir != "" {
		cfg.BaseDir = dir
	}

	if token := os.Getenv("HUBSPOT_ACCESS_TOKEN"); token != "" {
		cfg.HubSpot.AccessToken = token
	}

	cfg.Athena.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Athena.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.Athena.Region = region
	}
	cfg.Athena.Database = os.Getenv("ATHENA_DATABASE")
	cfg.Athena.OutputLocation = os.Getenv("ATHENA_OUTPUT_BUCKET")
	if wg := os.Getenv("ATHENA_WORKGROUP"); wg != "" {
		cfg.Athena.Workgroup = wg
	}

	cfg.PostHog.APIKey = os.Getenv("POSTHOG_API_KEY")
	cfg.PostHog.ProjectID = os.Getenv("POSTHOG_PROJECT_ID")
	if host := os.Getenv("POSTHOG_HOST"); host != "" {
		cfg.PostHog.Host = host
	}

	if err := ensureDirectories(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateHubSpot checks that HubSpot credentials are present.
// Called before any network call so a misconfigured run exits early.
func (c *Config) ValidateHubSpot() error {
	if c.HubSpot.AccessToken == "" {
		return &MissingEnvError{Vars: []string{"HUBSPOT_ACCESS_TOKEN"}}
	}
	return nil
}

// ValidateAthena checks that AWS and Athena settings are present.
func (c *Config) ValidateAthena() error {
	var missing []string
	if c.Athena.AccessKeyID == "" {
		missing = append(missing, "AWS_ACCESS_KEY_ID")
	}
	if c.Athena.SecretAccessKey == "" {
		missing = append(missing, "AWS_SECRET_ACCESS_KEY")
	}
	if c.Athena.OutputLocation == "" {
		missing = append(missing, "ATHENA_OUTPUT_BUCKET")
	}
	if c.Athena.Database == "" {
		missing = append(missing, "ATHENA_DATABASE")
	}
	if len(missing) > 0 {
		return &MissingEnvError{Vars: missing}
	}
	return nil
}

// ValidatePostHog checks that PostHog credentials are present.
func (c *Config) ValidatePostHog() error {
	var missing []string
	if c.PostHog.APIKey == "" {
		missing = append(missing, "POSTHOG_API_KEY")
	}
	if c.PostHog.ProjectID == "" {
		missing = append(missing, "POSTHOG_PROJECT_ID")
	}
	if len(missing) > 0 {
		return &MissingEnvError{Vars: missing}
	}
	return nil
}

// ensureDirectories creates required directories if they don't exist.
func ensureDirectories(cfg *Config) error {
	dirs := []string{
		cfg.BaseDir,
		filepath.Join(cfg.BaseDir, "data"),
		filepath.Join(cfg.BaseDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
