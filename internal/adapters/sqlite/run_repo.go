// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/climseir/internal/ports/secondary"
)

// RunRepository implements secondary.RunRepository with SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun persists a run, its summaries and its trajectory points in one
// transaction.
func (r *RunRepository) SaveRun(ctx context.Context, run *secondary.RunRecord, summaries []*secondary.SummaryRecord, points []*secondary.TrajectoryPointRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var label sql.NullString
	if run.Label != "" {
		label = sql.NullString{String: run.Label, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, label, kind, population, scenario_count) VALUES (?, ?, ?, ?, ?)",
		run.ID, label, run.Kind, run.Population, run.ScenarioCount,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	for _, s := range summaries {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO scenario_summaries (run_id, scenario, peak_i, peak_day, peak_time, clamps) VALUES (?, ?, ?, ?, ?, ?)",
			run.ID, s.Scenario, s.PeakI, s.PeakDay, s.PeakTime, s.Clamps,
		)
		if err != nil {
			return fmt.Errorf("failed to create summary for scenario %s: %w", s.Scenario, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO trajectory_points (run_id, scenario, idx, t, s, e, i, r) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare trajectory insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, run.ID, p.Scenario, p.Index, p.Time, p.S, p.E, p.I, p.R); err != nil {
			return fmt.Errorf("failed to create trajectory point %s[%d]: %w", p.Scenario, p.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*secondary.RunRecord, error) {
	var (
		label     sql.NullString
		createdAt time.Time
	)

	record := &secondary.RunRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, label, kind, population, scenario_count, created_at FROM runs WHERE id = ?",
		id,
	).Scan(&record.ID, &label, &record.Kind, &record.Population, &record.ScenarioCount, &createdAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	record.Label = label.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	return record, nil
}

// List retrieves all runs, newest first.
func (r *RunRepository) List(ctx context.Context) ([]*secondary.RunRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, label, kind, population, scenario_count, created_at FROM runs ORDER BY created_at DESC, rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*secondary.RunRecord
	for rows.Next() {
		var (
			label     sql.NullString
			createdAt time.Time
		)
		record := &secondary.RunRecord{}
		if err := rows.Scan(&record.ID, &label, &record.Kind, &record.Population, &record.ScenarioCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.Label = label.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		runs = append(runs, record)
	}

	return runs, rows.Err()
}

// ListSummaries retrieves the summaries of a run ordered by scenario name.
func (r *RunRepository) ListSummaries(ctx context.Context, runID string) ([]*secondary.SummaryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT run_id, scenario, peak_i, peak_day, peak_time, clamps FROM scenario_summaries WHERE run_id = ? ORDER BY scenario",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*secondary.SummaryRecord
	for rows.Next() {
		s := &secondary.SummaryRecord{}
		if err := rows.Scan(&s.RunID, &s.Scenario, &s.PeakI, &s.PeakDay, &s.PeakTime, &s.Clamps); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// ListTrajectory retrieves the points of one scenario ordered by index.
func (r *RunRepository) ListTrajectory(ctx context.Context, runID, scenario string) ([]*secondary.TrajectoryPointRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT run_id, scenario, idx, t, s, e, i, r FROM trajectory_points WHERE run_id = ? AND scenario = ? ORDER BY idx",
		runID, scenario,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trajectory: %w", err)
	}
	defer rows.Close()

	var points []*secondary.TrajectoryPointRecord
	for rows.Next() {
		p := &secondary.TrajectoryPointRecord{}
		if err := rows.Scan(&p.RunID, &p.Scenario, &p.Index, &p.Time, &p.S, &p.E, &p.I, &p.R); err != nil {
			return nil, fmt.Errorf("failed to scan trajectory point: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// Delete removes a run. Summaries and trajectory points cascade.
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("run %s not found", id)
	}

	return nil
}

// Ensure RunRepository implements the interface
var _ secondary.RunRepository = (*RunRepository)(nil)
