package sqlite_test

import (
	"context"
	"strings"
	"testing"

	"github.com/example/climseir/internal/adapters/sqlite"
)

func TestRunRepository_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewRunRepository(db)
	ctx := context.Background()

	run, summaries, points := testRun("run-001", []string{"baseline", "wetter"}, 5)
	if err := repo.SaveRun(ctx, run, summaries, points); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "run-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Label != "test batch" {
		t.Errorf("expected label 'test batch', got %q", got.Label)
	}
	if got.Kind != "continuous" {
		t.Errorf("expected kind 'continuous', got %q", got.Kind)
	}
	if got.Population != 1000 {
		t.Errorf("expected population 1000, got %v", got.Population)
	}
	if got.ScenarioCount != 2 {
		t.Errorf("expected scenario count 2, got %d", got.ScenarioCount)
	}
	if got.CreatedAt == "" {
		t.Error("expected CreatedAt to be set")
	}
}

func TestRunRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewRunRepository(db)

	_, err := repo.GetByID(context.Background(), "run-missing")
	if err == nil {
		t.Fatal("expected error for missing run")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected 'not found' error, got %v", err)
	}
}

func TestRunRepository_ListSummaries_OrderedByScenario(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewRunRepository(db)
	ctx := context.Background()

	run, summaries, points := testRun("run-001", []string{"wetter", "baseline", "intervention"}, 3)
	summaries[0].Clamps = 4
	if err := repo.SaveRun(ctx, run, summaries, points); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := repo.ListSummaries(ctx, "run-001")
	if err != nil {
		t.Fatalf("ListSummaries failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(got))
	}
	want := []string{"baseline", "intervention", "wetter"}
	for i, name := range want {
		if got[i].Scenario != name {
			t.Errorf("summary %d: expected %q, got %q", i, name, got[i].Scenario)
		}
	}
	if got[2].Clamps != 4 {
		t.Errorf("expected 4 clamps for wetter, got %d", got[2].Clamps)
	}
	if got[0].PeakI != 42.5 || got[0].PeakDay != 1 {
		t.Errorf("unexpected peak: %+v", got[0])
	}
}

func TestRunRepository_ListTrajectory(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewRunRepository(db)
	ctx := context.Background()

	run, summaries, points := testRun("run-001", []string{"baseline", "wetter"}, 10)
	if err := repo.SaveRun(ctx, run, summaries, points); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := repo.ListTrajectory(ctx, "run-001", "wetter")
	if err != nil {
		t.Fatalf("ListTrajectory failed: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 points, got %d", len(got))
	}
	for i, p := range got {
		if p.Index != i || p.Time != float64(i) {
			t.Errorf("point %d out of order: %+v", i, p)
		}
		if p.Scenario != "wetter" {
			t.Errorf("point %d: expected scenario wetter, got %q", i, p.Scenario)
		}
	}

	empty, err := repo.ListTrajectory(ctx, "run-001", "drier")
	if err != nil {
		t.Fatalf("ListTrajectory failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no points for unknown scenario, got %d", len(empty))
	}
}

func TestRunRepository_List_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewRunRepository(db)
	ctx := context.Background()

	for _, id := range []string{"run-001", "run-002", "run-003"} {
		run, summaries, points := testRun(id, []string{"baseline"}, 2)
		if err := repo.SaveRun(ctx, run, summaries, points); err != nil {
			t.Fatalf("SaveRun %s failed: %v", id, err)
		}
	}

	runs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-003" || runs[2].ID != "run-001" {
		t.Errorf("expected newest first, got %s, %s, %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}
}

func TestRunRepository_SaveRun_RollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewRunRepository(db)
	ctx := context.Background()

	run, summaries, points := testRun("run-001", []string{"baseline"}, 3)
	// Negative compartments violate the schema CHECK constraint.
	points[2].I = -1

	if err := repo.SaveRun(ctx, run, summaries, points); err == nil {
		t.Fatal("expected SaveRun to fail")
	}

	if _, err := repo.GetByID(ctx, "run-001"); err == nil {
		t.Error("expected run to be rolled back")
	}
}

func TestRunRepository_SaveRun_DuplicateID(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewRunRepository(db)
	ctx := context.Background()

	run, summaries, points := testRun("run-001", []string{"baseline"}, 2)
	if err := repo.SaveRun(ctx, run, summaries, points); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if err := repo.SaveRun(ctx, run, summaries, points); err == nil {
		t.Error("expected duplicate run ID to fail")
	}
}

func TestRunRepository_Delete_Cascades(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewRunRepository(db)
	ctx := context.Background()

	run, summaries, points := testRun("run-001", []string{"baseline", "wetter"}, 4)
	if err := repo.SaveRun(ctx, run, summaries, points); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	if err := repo.Delete(ctx, "run-001"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM scenario_summaries").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected summaries to cascade, %d remain", count)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM trajectory_points").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected trajectory points to cascade, %d remain", count)
	}

	if err := repo.Delete(ctx, "run-001"); err == nil {
		t.Error("expected error deleting missing run")
	}
}
