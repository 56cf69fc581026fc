// Package history keeps an opt-in record of past report runs in a local
// SQLite database. It is never on the report's critical path: a run that
// cannot be recorded still produces its report and exits zero.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the default database location
const DefaultPath = "/var/lib/peepdrive/history.db"

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// Open opens or creates the history database at the given path
func Open(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath
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

	if _, err := conn.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
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

// migrationV1 creates the initial schema
const migrationV1 = `
-- One row per report run
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    hostname TEXT,
    vg_filter TEXT,
    output_path TEXT,
    vg_count INTEGER DEFAULT 0,
    pv_count INTEGER DEFAULT 0,
    lv_count INTEGER DEFAULT 0,
    report_lines INTEGER DEFAULT 0,
    total_bytes INTEGER DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_time ON runs(created_at);

-- Per-VG detail for a run, including which tier produced the PV ordering
CREATE TABLE IF NOT EXISTS run_vgs (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs(id),
    vg_name TEXT NOT NULL,
    order_tier TEXT,
    pv_count INTEGER DEFAULT 0,
    lv_count INTEGER DEFAULT 0,
    size_bytes INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_run_vgs_run ON run_vgs(run_id);
CREATE INDEX IF NOT EXISTS idx_run_vgs_name ON run_vgs(vg_name);
`

// Run represents one recorded report run
type Run struct {
	ID          string
	Hostname    string
	VGFilter    string
	OutputPath  string
	VGCount     int
	PVCount     int
	LVCount     int
	ReportLines int
	TotalBytes  int64
	CreatedAt   time.Time
}

// RunVG represents one volume group within a recorded run
type RunVG struct {
	RunID     string
	VGName    string
	OrderTier string
	PVCount   int
	LVCount   int
	SizeBytes int64
}

// RecordRun inserts a run and its per-VG rows in one transaction.
func (d *DB) RecordRun(run *Run, vgs []RunVG) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO runs (id, hostname, vg_filter, output_path, vg_count, pv_count, lv_count, report_lines, total_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Hostname, run.VGFilter, run.OutputPath,
		run.VGCount, run.PVCount, run.LVCount, run.ReportLines, run.TotalBytes)
	if err != nil {
		tx.Rollback()
		return err
	}

	for _, vg := range vgs {
		_, err = tx.Exec(`
			INSERT INTO run_vgs (run_id, vg_name, order_tier, pv_count, lv_count, size_bytes)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, vg.VGName, vg.OrderTier, vg.PVCount, vg.LVCount, vg.SizeBytes)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent runs, newest first.
func (d *DB) RecentRuns(limit int) ([]*Run, error) {
	rows, err := d.conn.Query(`
		SELECT id, hostname, vg_filter, output_path, vg_count, pv_count, lv_count, report_lines, total_bytes, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		err := rows.Scan(&r.ID, &r.Hostname, &r.VGFilter, &r.OutputPath,
			&r.VGCount, &r.PVCount, &r.LVCount, &r.ReportLines, &r.TotalBytes, &r.CreatedAt)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunVGs returns the per-VG rows for one run.
func (d *DB) RunVGs(runID string) ([]*RunVG, error) {
	rows, err := d.conn.Query(`
		SELECT run_id, vg_name, order_tier, pv_count, lv_count, size_bytes
		FROM run_vgs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vgs []*RunVG
	for rows.Next() {
		vg := &RunVG{}
		err := rows.Scan(&vg.RunID, &vg.VGName, &vg.OrderTier, &vg.PVCount, &vg.LVCount, &vg.SizeBytes)
		if err != nil {
			return nil, err
		}
		vgs = append(vgs, vg)
	}
	return vgs, rows.Err()
}
