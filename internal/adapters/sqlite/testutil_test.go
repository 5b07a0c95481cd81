// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the single point where the database schema is loaded for
// tests. Setup uses db.GetSchemaSQL() so tests always run against the
// authoritative schema.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/climseir/internal/db"
	"github.com/example/climseir/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// A second pooled connection would see a different in-memory database.
	testDB.SetMaxOpenConns(1)

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// testRun builds a run with one summary and n trajectory points per scenario.
func testRun(id string, scenarios []string, n int) (*secondary.RunRecord, []*secondary.SummaryRecord, []*secondary.TrajectoryPointRecord) {
	run := &secondary.RunRecord{
		ID:            id,
		Label:         "test batch",
		Kind:          secondary.RunKindContinuous,
		Population:    1000,
		ScenarioCount: len(scenarios),
	}

	var summaries []*secondary.SummaryRecord
	var points []*secondary.TrajectoryPointRecord
	for _, name := range scenarios {
		summaries = append(summaries, &secondary.SummaryRecord{
			RunID:    id,
			Scenario: name,
			PeakI:    42.5,
			PeakDay:  n / 2,
			PeakTime: float64(n / 2),
		})
		for i := 0; i < n; i++ {
			points = append(points, &secondary.TrajectoryPointRecord{
				RunID:    id,
				Scenario: name,
				Index:    i,
				Time:     float64(i),
				S:        990 - float64(i),
				E:        5,
				I:        5,
				R:        float64(i),
			})
		}
	}
	return run, summaries, points
}
