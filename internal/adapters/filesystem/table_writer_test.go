package filesystem_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/climseir/internal/adapters/filesystem"
	"github.com/example/climseir/internal/ports/secondary"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse %s: %v", path, err)
	}
	return records
}

func testTableSet(dir string) secondary.TableSet {
	return secondary.TableSet{
		Dir:   dir,
		Stamp: "20240131_154500",
		Summaries: []*secondary.SummaryRecord{
			{Scenario: "baseline", PeakI: 1234.5, PeakDay: 87},
			{Scenario: "wetter year", PeakI: 2000, PeakDay: 80},
		},
		Trajectories: map[string][]*secondary.TrajectoryPointRecord{
			"baseline": {
				{Index: 0, Time: 0, S: 990, E: 5, I: 5, R: 0},
				{Index: 1, Time: 1, S: 989.25, E: 5.5, I: 5.25, R: 0},
			},
			"wetter year": {
				{Index: 0, Time: 0, S: 990, E: 5, I: 5, R: 0},
			},
		},
	}
}

func TestTableWriter_WriteTables(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	writer := filesystem.NewTableWriter()

	paths, err := writer.WriteTables(context.Background(), testTableSet(dir))
	if err != nil {
		t.Fatalf("WriteTables failed: %v", err)
	}

	want := []string{
		filepath.Join(dir, "summary_20240131_154500.csv"),
		filepath.Join(dir, "trajectory_baseline_20240131_154500.csv"),
		filepath.Join(dir, "trajectory_wetter_year_20240131_154500.csv"),
	}
	if len(paths) != len(want) {
		t.Fatalf("expected %d paths, got %v", len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("path %d: expected %s, got %s", i, want[i], paths[i])
		}
	}

	summary := readCSV(t, paths[0])
	if len(summary) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d rows", len(summary))
	}
	if summary[0][0] != "scenario" || summary[0][1] != "peak_I" || summary[0][2] != "peak_day" {
		t.Errorf("unexpected summary header: %v", summary[0])
	}
	if summary[1][0] != "baseline" || summary[1][1] != "1234.5" || summary[1][2] != "87" {
		t.Errorf("unexpected baseline row: %v", summary[1])
	}

	traj := readCSV(t, paths[1])
	if len(traj) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d rows", len(traj))
	}
	if traj[0][0] != "t" || traj[0][4] != "R" {
		t.Errorf("unexpected trajectory header: %v", traj[0])
	}
	if traj[2][1] != "989.25" || traj[2][3] != "5.25" {
		t.Errorf("unexpected trajectory row: %v", traj[2])
	}
}

func TestTableWriter_SkipsScenariosWithoutTrajectory(t *testing.T) {
	set := testTableSet(t.TempDir())
	delete(set.Trajectories, "wetter year")

	paths, err := filesystem.NewTableWriter().WriteTables(context.Background(), set)
	if err != nil {
		t.Fatalf("WriteTables failed: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("expected summary and one trajectory, got %v", paths)
	}
}

func TestTableWriter_RequiresDir(t *testing.T) {
	_, err := filesystem.NewTableWriter().WriteTables(context.Background(), secondary.TableSet{})
	if err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestTableWriter_RejectsCollidingFileNames(t *testing.T) {
	dir := t.TempDir()
	set := secondary.TableSet{
		Dir:   dir,
		Stamp: "20240131_154500",
		Summaries: []*secondary.SummaryRecord{
			{Scenario: "a b", PeakI: 1, PeakDay: 1},
			{Scenario: "a_b", PeakI: 2, PeakDay: 2},
		},
		Trajectories: map[string][]*secondary.TrajectoryPointRecord{
			"a b": {{Index: 0, Time: 0, S: 1}},
			"a_b": {{Index: 0, Time: 0, S: 2}},
		},
	}

	_, err := filesystem.NewTableWriter().WriteTables(context.Background(), set)
	if err == nil {
		t.Fatal("expected error for colliding scenario file names")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected nothing written, found %d files", len(entries))
	}
}
