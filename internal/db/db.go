package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// New opens or creates the SQLite database at the given path
func New(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets the CLI read while the daemon writes
	if _, err := conn.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}

// migrate runs the database schema migrations
func (d *DB) migrate() error {
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	var version int
	err = d.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return err
	}

	migrations := []string{
		migrationV1,
		migrationV2,
	}

	for i, migration := range migrations {
		v := i + 1
		if v <= version {
			continue
		}

		tx, err := d.conn.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(migration); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d failed: %w", v, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

// migrationV1 creates restoration records and settings
const migrationV1 = `
-- Disks to recognise or recreate on next launch, in registry order
CREATE TABLE IF NOT EXISTS restoration_records (
    position INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    identifier TEXT NOT NULL,
    capacity_bytes INTEGER NOT NULL,
    file_system TEXT NOT NULL,
    bsd_name TEXT NOT NULL,
    device_path TEXT NOT NULL,
    saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// migrationV2 adds the disk lifecycle history
const migrationV2 = `
CREATE TABLE IF NOT EXISTS disk_events (
    id INTEGER PRIMARY KEY,
    event_type TEXT NOT NULL,
    name TEXT,
    identifier TEXT,
    bsd_name TEXT,
    device_path TEXT,
    details TEXT,
    timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_time ON disk_events(timestamp);
CREATE INDEX IF NOT EXISTS idx_events_type ON disk_events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_identifier ON disk_events(identifier);
`

// Event is one entry of the disk lifecycle history
type Event struct {
	ID         int64     `json:"id"`
	EventType  string    `json:"event_type"`
	Name       string    `json:"name,omitempty"`
	Identifier string    `json:"identifier,omitempty"`
	BSDName    string    `json:"bsd_name,omitempty"`
	DevicePath string    `json:"device_path,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Event types
const (
	EventCreated    = "created"    // candidate matched an appeared disk
	EventRestored   = "restored"   // restoration record matched an unclaimed disk
	EventRecreating = "recreating" // restoration record had no disk, creation issued
	EventUnclaimed  = "unclaimed"  // managed-type disk nobody was waiting for
	EventRenamed    = "renamed"
	EventRemoved    = "removed" // disk disappeared from the registry
	EventFailed     = "failed"  // allocation, formatting or ejecting failed
	EventEjected    = "ejected" // eject tool reported success
)

// Setting keys
const (
	SettingPersistSetup = "persist_setup"
)
