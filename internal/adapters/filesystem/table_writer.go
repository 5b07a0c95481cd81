// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/climseir/internal/ports/secondary"
)

var (
	summaryHeader    = []string{"scenario", "peak_I", "peak_day"}
	trajectoryHeader = []string{"t", "S", "E", "I", "R"}
)

// TableWriter implements secondary.TableWriter with CSV files.
type TableWriter struct{}

// NewTableWriter creates a new CSV table writer.
func NewTableWriter() *TableWriter {
	return &TableWriter{}
}

// WriteTables writes summary_<stamp>.csv and one trajectory_<scenario>_<stamp>.csv
// per scenario into set.Dir, creating the directory if needed. Trajectory
// files follow the order of set.Summaries.
func (w *TableWriter) WriteTables(ctx context.Context, set secondary.TableSet) ([]string, error) {
	if set.Dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := checkFileNames(set.Summaries); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(set.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	summaryPath := filepath.Join(set.Dir, fmt.Sprintf("summary_%s.csv", set.Stamp))
	rows := make([][]string, 0, len(set.Summaries))
	for _, s := range set.Summaries {
		rows = append(rows, []string{s.Scenario, formatFloat(s.PeakI), strconv.Itoa(s.PeakDay)})
	}
	if err := writeCSV(summaryPath, summaryHeader, rows); err != nil {
		return nil, err
	}
	paths := []string{summaryPath}

	for _, s := range set.Summaries {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		points, ok := set.Trajectories[s.Scenario]
		if !ok {
			continue
		}

		path := filepath.Join(set.Dir, fmt.Sprintf("trajectory_%s_%s.csv", fileSafe(s.Scenario), set.Stamp))
		rows := make([][]string, 0, len(points))
		for _, p := range points {
			rows = append(rows, []string{
				formatFloat(p.Time),
				formatFloat(p.S),
				formatFloat(p.E),
				formatFloat(p.I),
				formatFloat(p.R),
			})
		}
		if err := writeCSV(path, trajectoryHeader, rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// checkFileNames rejects scenario names that map to the same trajectory file.
func checkFileNames(summaries []*secondary.SummaryRecord) error {
	seen := make(map[string]string, len(summaries))
	for _, s := range summaries {
		safe := fileSafe(s.Scenario)
		if other, ok := seen[safe]; ok {
			return fmt.Errorf("scenarios %q and %q share trajectory file name %q", other, s.Scenario, safe)
		}
		seen[safe] = s.Scenario
	}
	return nil
}

// fileSafe replaces characters that cannot appear in a file name.
func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

// Ensure TableWriter implements the interface
var _ secondary.TableWriter = (*TableWriter)(nil)
