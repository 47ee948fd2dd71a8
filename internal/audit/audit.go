// Package audit provides a GORM-based store for the action audit trail.
// It uses the pure-Go SQLite driver so automation runs can be reviewed
// with any SQLite client.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry records one executed action and its outcome.
type Entry struct {
	ID        string    `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index"`
	Action    string    `gorm:"index"`
	Success   bool
	// Details is a JSON object with action-specific fields.
	Details string
}

// setting is a key/value row used for the persistent tracking ID.
type setting struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// Store wraps the GORM connection with audit-specific operations.
type Store struct {
	db   *gorm.DB
	path string
}

// Config holds audit store configuration options.
type Config struct {
	Path  string
	Debug bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(path string) Config {
	return Config{Path: path}
}

// New opens the audit database and runs migrations.
func New(cfg Config) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)", cfg.Path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	if err := db.AutoMigrate(&Entry{}, &setting{}); err != nil {
		return nil, fmt.Errorf("migrate audit schema: %w", err)
	}

	return &Store{db: db, path: cfg.Path}, nil
}

// Log records an action outcome. Details are serialized to JSON; a failure
// to serialize is reported, not silently dropped.
func (s *Store) Log(action string, details map[string]interface{}, success bool) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("serialize audit details: %w", err)
	}

	entry := Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Success:   success,
		Details:   string(payload),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	var entries []Entry
	err := s.db.Order("timestamp DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("read audit entries: %w", err)
	}
	return entries, nil
}

// ByAction returns all entries for one action name, newest first.
func (s *Store) ByAction(action string) ([]Entry, error) {
	var entries []Entry
	err := s.db.Where("action = ?", action).Order("timestamp DESC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("read audit entries: %w", err)
	}
	return entries, nil
}

// GetOrCreateTrackingID returns the persistent anonymous tracking ID,
// creating one on first use. Satisfies telemetry.TrackingIDProvider.
func (s *Store) GetOrCreateTrackingID() string {
	var row setting
	err := s.db.First(&row, "key = ?", "tracking_id").Error
	if err == nil && row.Value != "" {
		return row.Value
	}

	id := uuid.New().String()
	row = setting{Key: "tracking_id", Value: id}
	createErr := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if createErr != nil {
		// Fall back to a per-session ID rather than failing the run.
		return uuid.New().String()
	}
	return id
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
