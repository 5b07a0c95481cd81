package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// Only simulation results live here. Scenario configurations are read from
// the caller's configuration file on every run and are never stored.
//
// IMPORTANT: Keep this in sync with migrations. Repository tests load it
// through GetSchemaSQL(), so a column missing here fails them immediately.
const SchemaSQL = `
-- Runs (one scenario batch)
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	label TEXT,
	kind TEXT NOT NULL CHECK(kind IN ('continuous', 'weekly')),
	population REAL NOT NULL CHECK(population > 0),
	scenario_count INTEGER NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

-- Scenario summaries (one row per scenario of a run)
CREATE TABLE IF NOT EXISTS scenario_summaries (
	run_id TEXT NOT NULL,
	scenario TEXT NOT NULL,
	peak_i REAL NOT NULL CHECK(peak_i >= 0),
	peak_day INTEGER NOT NULL CHECK(peak_day >= 0),
	peak_time REAL NOT NULL,
	clamps INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, scenario),
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

-- Trajectory points (time, S, E, I, R per evaluated time)
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
`

// InitSchema creates the schema on a fresh database and runs pending
// migrations on an existing one.
func InitSchema(conn *sql.DB) error {
	var tableCount int
	err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(conn)
	}

	// Fresh install - create modern schema directly and mark every
	// migration as applied.
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(conn); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := conn.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
