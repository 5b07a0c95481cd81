package db

import (
	"database/sql"
	"fmt"
)

// Migration is one schema upgrade step.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *sql.Tx) error
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_results_schema",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_clamps_to_summaries",
		Up:      migrationV2,
	},
}

func createVersionTable(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// RunMigrations executes all pending migrations
func RunMigrations(conn *sql.DB) error {
	if err := createVersionTable(conn); err != nil {
		return err
	}

	var currentVersion int
	err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates the results tables as first released (no clamp counts).
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			label TEXT,
			kind TEXT NOT NULL CHECK(kind IN ('continuous', 'weekly')),
			population REAL NOT NULL CHECK(population > 0),
			scenario_count INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
		CREATE TABLE IF NOT EXISTS scenario_summaries (
			run_id TEXT NOT NULL,
			scenario TEXT NOT NULL,
			peak_i REAL NOT NULL CHECK(peak_i >= 0),
			peak_day INTEGER NOT NULL CHECK(peak_day >= 0),
			peak_time REAL NOT NULL,
			PRIMARY KEY (run_id, scenario),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		);
		CREATE TABLE IF NOT EXISTS trajectory_points (
			run_id TEXT NOT NULL,
			scenario TEXT NOT NULL,
			idx INTEGER NOT NULL CHECK(idx >= 0),
			t REAL NOT NULL,
			s REAL NOT NULL CHECK(s >= 0),
			e REAL NOT NULL CHECK(e >= 0),
			i REAL NOT NULL CHECK(i >= 0),
			r REAL NOT NULL CHECK(r >= 0),
			PRIMARY KEY (run_id, scenario, idx),
			FOREIGN KEY (run_id, scenario) REFERENCES scenario_summaries(run_id, scenario) ON DELETE CASCADE
		);
	`)
	return err
}

// migrationV2 records how often the weekly stepper clamped each scenario.
func migrationV2(tx *sql.Tx) error {
	var count int
	err := tx.QueryRow("SELECT COUNT(*) FROM pragma_table_info('scenario_summaries') WHERE name = 'clamps'").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = tx.Exec("ALTER TABLE scenario_summaries ADD COLUMN clamps INTEGER NOT NULL DEFAULT 0")
	return err
}
