package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Paths contains commonly used file paths.
type Paths struct {
	DataDir      string // Intermediate files and cache databases
	HubSpotCache string // HubSpot DuckDB cache file
	AthenaCache  string // Athena DuckDB cache file
	PostHogCache string // PostHog DuckDB cache file
	AuditDB      string // SQLite audit trail database
	SourcesDir   string // Athena *.sql query definitions
	LogDir       string // Log files
}

// GetPaths returns all commonly used paths based on config.
func GetPaths(cfg *Config) Paths {
	dataDir := filepath.Join(cfg.BaseDir, "data")
	return Paths{
		DataDir:      dataDir,
		HubSpotCache: filepath.Join(dataDir, "hubspot_cache.duckdb"),
		AthenaCache:  filepath.Join(dataDir, "athena_cache.duckdb"),
		PostHogCache: filepath.Join(dataDir, "posthog_cache.duckdb"),
		AuditDB:      filepath.Join(cfg.BaseDir, "audit.db"),
		SourcesDir:   filepath.Join(cfg.BaseDir, "sources", "aws_athena"),
		LogDir:       filepath.Join(cfg.BaseDir, "logs"),
	}
}

// DefaultBaseDir returns the default base directory (~/.bidash).
func DefaultBaseDir() string {
	if home := xdg.Home; home != "" {
		return filepath.Join(home, ".bidash")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bidash"
	}
	return filepath.Join(home, ".bidash")
}
