// Package store provides database schema migration management.
package store

import (
	"fmt"
	"time"
)

// Migration represents a single schema migration. DDL is the only place
// the two backends diverge, so each migration carries one statement set
// per dialect.
type Migration struct {
	Version     int
	Description string
	SQLite      []string
	MySQL       []string
}

// migrations is the ordered list of schema migrations.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		SQLite: []string{
			`CREATE TABLE IF NOT EXISTS items (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				location TEXT NOT NULL DEFAULT '',
				position TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS stock_events (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				item_id TEXT NOT NULL,
				stock_value INTEGER NOT NULL CHECK(stock_value >= 0),
				reason TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_stock_events_item ON stock_events(item_id, created_at DESC, seq DESC);`,
		},
		MySQL: []string{
			`CREATE TABLE IF NOT EXISTS items (
				id VARCHAR(36) PRIMARY KEY,
				name VARCHAR(50) NOT NULL,
				location VARCHAR(50) NOT NULL DEFAULT '',
				position VARCHAR(50) NOT NULL DEFAULT '',
				created_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS stock_events (
				seq BIGINT AUTO_INCREMENT PRIMARY KEY,
				id VARCHAR(36) NOT NULL UNIQUE,
				item_id VARCHAR(36) NOT NULL,
				stock_value INT NOT NULL,
				reason VARCHAR(255) NOT NULL DEFAULT '',
				created_at BIGINT NOT NULL,
				INDEX idx_stock_events_item (item_id, created_at, seq)
			);`,
		},
	},
}

// Migrator applies pending schema migrations.
type Migrator struct {
	db *DB
}

// NewMigrator creates a new Migrator instance.
func NewMigrator(db *DB) *Migrator {
	return &Migrator{db: db}
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (m *Migrator) Initialize() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at BIGINT NOT NULL,
		description TEXT NOT NULL
	);`
	_, err := m.db.Exec(query)
	return err
}

// CurrentVersion returns the current schema version.
func (m *Migrator) CurrentVersion() (int, error) {
	var version int
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// Up applies all pending migrations in version order.
func (m *Migrator) Up() error {
	if err := m.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	current, err := m.CurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, mig := range migrations {
		if mig.Version <= current {
			continue
		}
		if err := m.apply(mig); err != nil {
			return fmt.Errorf("migration V%d (%s) failed: %w", mig.Version, mig.Description, err)
		}
	}
	return nil
}

// apply runs a single migration and records it.
func (m *Migrator) apply(mig Migration) error {
	stmts := mig.SQLite
	if m.db.Dialect == DialectMySQL {
		stmts = mig.MySQL
	}

	for _, stmt := range stmts {
		if _, err := m.db.Exec(stmt); err != nil {
			return err
		}
	}

	_, err := m.db.Exec(
		"INSERT INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)",
		mig.Version, time.Now().Unix(), mig.Description,
	)
	return err
}
