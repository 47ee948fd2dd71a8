// Package cache loads flattened rows into a local DuckDB file used as a
// query cache by the dashboard layer. Every load fully replaces the target
// table; nothing is updated incrementally.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/mlighty/bi-agent-dashboard/internal/flatten"
	"github.com/mlighty/bi-agent-dashboard/internal/log"
)

// Loader writes row batches into one DuckDB cache file. The connection is
// opened and closed per table, so concurrent dashboard readers only contend
// for the duration of a single load.
type Loader struct {
	// DBPath is the DuckDB file backing the cache.
	DBPath string
	// ScratchDir holds intermediate serialized-row files; they are removed
	// after a successful load.
	ScratchDir string
}

// NewLoader creates a loader writing to dbPath, staging intermediate files
// in scratchDir.
func NewLoader(dbPath, scratchDir string) *Loader {
	return &Loader{DBPath: dbPath, ScratchDir: scratchDir}
}

// Load replaces the named table with the given rows and returns the loaded
// row count. An empty batch is a no-op: the existing table, if any, is left
// untouched. Rows may carry differing key sets; DuckDB infers the superset
// schema from the intermediate JSON and fills missing fields with NULL.
func (l *Loader) Load(ctx context.Context, table string, rows []flatten.Row) (int64, error) {
	if err := validateTableName(table); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		log.Printf("  No data to save for %s\n", table)
		return 0, nil
	}

	if err := os.MkdirAll(l.ScratchDir, 0755); err != nil {
		return 0, fmt.Errorf("create data directory: %w", err)
	}

	jsonPath := filepath.Join(l.ScratchDir, table+".json")
	data, err := json.Marshal(rows)
	if err != nil {
		return 0, fmt.Errorf("serialize rows: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return 0, fmt.Errorf("write intermediate file: %w", err)
	}

	count, err := l.replaceFromFile(ctx, table, "read_json_auto", jsonPath)
	if err != nil {
		return 0, err
	}

	if err := os.Remove(jsonPath); err != nil {
		return 0, fmt.Errorf("remove intermediate file: %w", err)
	}
	return count, nil
}

// LoadCSV replaces the named table from a CSV file (schema auto-inferred),
// as produced by the Athena result download. The source file is kept; the
// caller owns its lifecycle.
func (l *Loader) LoadCSV(ctx context.Context, table, csvPath string) (int64, error) {
	if err := validateTableName(table); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(l.DBPath), 0755); err != nil {
		return 0, fmt.Errorf("create data directory: %w", err)
	}
	return l.replaceFromFile(ctx, table, "read_csv_auto", csvPath)
}

// replaceFromFile bulk-reads the file into a staging table, then swaps it
// in for the old table inside one transaction so a concurrent reader never
// observes the table missing.
func (l *Loader) replaceFromFile(ctx context.Context, table, readFunc, path string) (int64, error) {
	db, err := sql.Open("duckdb", l.DBPath)
	if err != nil {
		return 0, fmt.Errorf("open cache database: %w", err)
	}
	defer func() { _ = db.Close() }()

	staging := table + "__staging"
	if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", staging)); err != nil {
		return 0, fmt.Errorf("drop staging table: %w", err)
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s('%s')", staging, readFunc, escapePath(path))
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return 0, fmt.Errorf("create staging table %s: %w", staging, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin swap transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("drop table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", staging, table)); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("rename staging table: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit swap: %w", err)
	}

	var count int64
	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("verify row count: %w", err)
	}
	log.Printf("  Saved %d rows to %s\n", count, table)
	return count, nil
}

// TableCount returns the row count of a table, or 0 if it does not exist.
func (l *Loader) TableCount(ctx context.Context, table string) (int64, error) {
	if err := validateTableName(table); err != nil {
		return 0, err
	}
	db, err := sql.Open("duckdb", l.DBPath)
	if err != nil {
		return 0, fmt.Errorf("open cache database: %w", err)
	}
	defer func() { _ = db.Close() }()

	var exists bool
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) > 0 FROM information_schema.tables WHERE table_name = ?", table).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check table: %w", err)
	}
	if !exists {
		return 0, nil
	}

	var count int64
	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return count, nil
}

// validateTableName rejects names that cannot be safely interpolated into
// DDL statements. Table names come from our own dataset registry and from
// *.sql file stems, never from remote data.
func validateTableName(table string) error {
	if table == "" {
		return fmt.Errorf("empty table name")
	}
	for _, r := range table {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return fmt.Errorf("invalid table name %q", table)
		}
	}
	return nil
}

func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
