package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// GetBool reads a boolean setting. found is false when it was never set.
func (d *DB) GetBool(key string) (value bool, found bool, err error) {
	var raw string
	err = d.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("setting %s holds %q: %w", key, raw, err)
	}
	return v, true, nil
}

// SetBool stores a boolean setting
func (d *DB) SetBool(key string, value bool) error {
	_, err := d.conn.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, strconv.FormatBool(value))
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}
