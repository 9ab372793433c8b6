package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// RecordEvent appends a lifecycle event. details is stored as JSON.
func (d *DB) RecordEvent(e *Event, details map[string]interface{}) error {
	if details != nil {
		b, err := json.Marshal(details)
		if err == nil {
			e.Details = string(b)
		}
	}

	result, err := d.conn.Exec(`
		INSERT INTO disk_events (event_type, name, identifier, bsd_name, device_path, details)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.EventType, nullString(e.Name), nullString(e.Identifier), nullString(e.BSDName),
		nullString(e.DevicePath), nullString(e.Details))
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	id, _ := result.LastInsertId()
	e.ID = id
	return nil
}

// GetRecentEvents returns the most recent events, newest first
func (d *DB) GetRecentEvents(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, event_type, name, identifier, bsd_name, device_path, details, timestamp
		FROM disk_events
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetEventsByType returns events of a specific type
func (d *DB) GetEventsByType(eventType string, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, event_type, name, identifier, bsd_name, device_path, details, timestamp
		FROM disk_events
		WHERE event_type = ?
		ORDER BY id DESC
		LIMIT ?
	`, eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by type: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetEventsByIdentifier returns the history of one disk
func (d *DB) GetEventsByIdentifier(identifier string, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, event_type, name, identifier, bsd_name, device_path, details, timestamp
		FROM disk_events
		WHERE identifier = ?
		ORDER BY id DESC
		LIMIT ?
	`, identifier, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by identifier: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	var events []*Event
	for rows.Next() {
		var event Event
		var name, identifier, bsd, devicePath, details sql.NullString

		err := rows.Scan(
			&event.ID, &event.EventType,
			&name, &identifier, &bsd, &devicePath,
			&details, &event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		event.Name = name.String
		event.Identifier = identifier.String
		event.BSDName = bsd.String
		event.DevicePath = devicePath.String
		event.Details = details.String

		events = append(events, &event)
	}

	return events, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
