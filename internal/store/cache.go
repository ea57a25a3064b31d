// Package store provides a SQLite-backed cache for parsed data files.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/esaepulloh/bikedash/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed record caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked state of a cached data file.
type FileInfo struct {
	MtimeNs      int64
	SizeBytes    int64
	RowErrors    int
	Inconsistent int
	ExtraColumns int
}

// Matches reports whether the tracked mtime and size equal the given ones.
func (fi FileInfo) Matches(mtimeNs, sizeBytes int64) bool {
	return fi.MtimeNs == mtimeNs && fi.SizeBytes == sizeBytes
}

// GetTrackedFile returns tracking info for path. ok is false when the file
// has never been cached.
func (c *Cache) GetTrackedFile(path string) (fi FileInfo, ok bool, err error) {
	err = c.db.QueryRow(`SELECT mtime_ns, size_bytes, row_errors, inconsistent, extra_columns
		FROM file_tracker WHERE file_path = ?`, path).
		Scan(&fi.MtimeNs, &fi.SizeBytes, &fi.RowErrors, &fi.Inconsistent, &fi.ExtraColumns)
	if errors.Is(err, sql.ErrNoRows) {
		return FileInfo{}, false, nil
	}
	if err != nil {
		return FileInfo{}, false, err
	}
	return fi, true, nil
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes, row_errors, inconsistent, extra_columns FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes, &fi.RowErrors, &fi.Inconsistent, &fi.ExtraColumns); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveRecords replaces the cached records for path and updates its tracker
// entry in one transaction.
func (c *Cache) SaveRecords(path string, records []model.Record, fi FileInfo) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker
		(file_path, mtime_ns, size_bytes, row_errors, inconsistent, extra_columns, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		path, fi.MtimeNs, fi.SizeBytes, fi.RowErrors, fi.Inconsistent, fi.ExtraColumns, now)
	if err != nil {
		return err
	}

	if _, err = tx.Exec("DELETE FROM records WHERE file_path = ?", path); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO records
		(file_path, row_index, date, casual, registered, cnt,
		 season, weather, temp, humidity, windspeed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range records {
		_, err = stmt.Exec(path, i, r.Date.Format(model.DateLayout),
			r.Casual, r.Registered, r.Count,
			r.Season, r.Weather, r.Temp, r.Humidity, r.Windspeed)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadRecords reads the cached records for path in their original row order.
func (c *Cache) LoadRecords(path string) ([]model.Record, error) {
	rows, err := c.db.Query(`SELECT
		date, casual, registered, cnt, season, weather, temp, humidity, windspeed
		FROM records WHERE file_path = ? ORDER BY row_index`, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []model.Record
	for rows.Next() {
		var r model.Record
		var date string
		err := rows.Scan(&date, &r.Casual, &r.Registered, &r.Count,
			&r.Season, &r.Weather, &r.Temp, &r.Humidity, &r.Windspeed)
		if err != nil {
			return nil, err
		}
		r.Date, err = time.Parse(model.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("cached date %q: %w", date, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteFile removes a tracked file and its cached records.
func (c *Cache) DeleteFile(path string) error {
	_, err := c.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", path)
	return err
}

// RecordCount returns the number of cached records across all files.
func (c *Cache) RecordCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}
