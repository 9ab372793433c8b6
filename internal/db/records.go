package db

import (
	"fmt"

	"github.com/sigreer/rdisk/internal/ramdisk"
)

// SaveRecords replaces the stored restoration records with records,
// keeping their order
func (d *DB) SaveRecords(records []ramdisk.RestorationRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM restoration_records"); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear restoration records: %w", err)
	}

	for i, r := range records {
		_, err := tx.Exec(`
			INSERT INTO restoration_records (position, name, identifier, capacity_bytes, file_system, bsd_name, device_path)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, i, r.Name, r.Identifier, r.CapacityBytes, r.FileSystem.Token(), r.BSDName, r.DevicePath)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save restoration record %q: %w", r.Name, err)
		}
	}

	return tx.Commit()
}

// LoadRecords returns the stored restoration records in saved order.
// Rows with an unknown file system are skipped.
func (d *DB) LoadRecords() ([]ramdisk.RestorationRecord, error) {
	rows, err := d.conn.Query(`
		SELECT name, identifier, capacity_bytes, file_system, bsd_name, device_path
		FROM restoration_records
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query restoration records: %w", err)
	}
	defer rows.Close()

	var records []ramdisk.RestorationRecord
	for rows.Next() {
		var r ramdisk.RestorationRecord
		var fs string
		if err := rows.Scan(&r.Name, &r.Identifier, &r.CapacityBytes, &fs, &r.BSDName, &r.DevicePath); err != nil {
			return nil, fmt.Errorf("failed to scan restoration record: %w", err)
		}
		r.FileSystem = ramdisk.FileSystem(fs)
		if !r.FileSystem.Valid() {
			continue
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ClearRecords deletes every stored restoration record
func (d *DB) ClearRecords() error {
	if _, err := d.conn.Exec("DELETE FROM restoration_records"); err != nil {
		return fmt.Errorf("failed to clear restoration records: %w", err)
	}
	return nil
}
