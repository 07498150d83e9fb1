package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS audit_runs (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			currency TEXT NOT NULL,
			total_billed REAL NOT NULL,
			invoice_count INTEGER NOT NULL,
			recoverable_amount REAL NOT NULL,
			discrepancy_count INTEGER NOT NULL,
			audit_time_seconds REAL NOT NULL,
			source_files TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_runs_created_at ON audit_runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS discrepancies (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			type TEXT NOT NULL,
			priority TEXT NOT NULL,
			issue TEXT NOT NULL,
			description TEXT NOT NULL,
			value REAL NOT NULL,
			confidence REAL NOT NULL,
			evidence TEXT NOT NULL,
			recommendations TEXT NOT NULL,
			detected_at DATETIME NOT NULL,
			FOREIGN KEY (run_id) REFERENCES audit_runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_discrepancies_run ON discrepancies(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_discrepancies_type ON discrepancies(type)`,
		`CREATE INDEX IF NOT EXISTS idx_discrepancies_priority ON discrepancies(priority)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
