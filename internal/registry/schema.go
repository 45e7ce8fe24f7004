package registry

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createRunsTable(tx); err != nil {
			return err
		}
		if err := createAllocationsTable(tx); err != nil {
			return err
		}
		if err := createAuditLogTable(tx); err != nil {
			return err
		}
		if err := createSnapshotsTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Registry schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})

		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		return nil
	}

	db.logger.Info("Running registry migrations", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})

	// Migrations run sequentially as the schema evolves.
	if version == 0 {
		return db.initializeSchema()
	}

	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createRunsTable creates the runs table recording each phx invocation
func createRunsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			error_count INTEGER NOT NULL DEFAULT 0,
			warning_count INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	_, err = tx.Exec("CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)")
	return err
}

// createAllocationsTable creates the allocations table. A (phase, seq)
// row means that sequence number is burned for the phase forever, even
// if the matching directory is later deleted.
func createAllocationsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS allocations (
			phase INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			allocated_at TEXT NOT NULL,

			PRIMARY KEY (phase, seq)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create allocations table: %w", err)
	}
	return nil
}

// createAuditLogTable creates the audit_log table for mutating operations
func createAuditLogTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			operation TEXT NOT NULL,
			phase INTEGER NOT NULL,
			details_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create audit_log table: %w", err)
	}

	_, err = tx.Exec("CREATE INDEX IF NOT EXISTS idx_audit_log_phase ON audit_log(phase)")
	return err
}

// createSnapshotsTable creates the snapshots table
func createSnapshotsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			phase INTEGER NOT NULL,
			path TEXT NOT NULL,
			sha256 TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}

	_, err = tx.Exec("CREATE INDEX IF NOT EXISTS idx_snapshots_phase ON snapshots(phase)")
	return err
}
