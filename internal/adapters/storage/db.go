package storage

import (
	"database/sql"
	"fmt"
)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables and indexes exist, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// The composite (logged_by, contributor_id, contribution_date, mofo_team,
	// data_bucket) is the deletion key but is deliberately NOT unique:
	// duplicate submissions append, matching the public contract.
	schema := `
	CREATE TABLE IF NOT EXISTS contribution (
		id TEXT PRIMARY KEY,
		logged_by TEXT NOT NULL,
		contributor_id TEXT NOT NULL,
		contribution_date TEXT NOT NULL,
		mofo_team TEXT NOT NULL DEFAULT '',
		data_bucket TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contribution_logger_recency
		ON contribution (logged_by, created_at DESC);

	CREATE INDEX IF NOT EXISTS idx_contribution_aggregate
		ON contribution (contribution_date, mofo_team, data_bucket);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
