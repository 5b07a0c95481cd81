// Package scenario contains the pure logic around named counterfactual
// scenarios: their forcing overrides, the peak reduction of a trajectory,
// and the guards that validate a run before any integration starts.
package scenario

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/example/climseir/internal/core/forcing"
)

// ErrEmptySeries is returned when a peak is requested from no values.
var ErrEmptySeries = errors.New("scenario: cannot reduce an empty series")

// Definition is one named bundle of forcing overrides.
type Definition struct {
	ClimateShock       float64
	InterventionStart  *float64
	InterventionEffect float64
}

// Overrides converts the definition to forcing overrides.
func (d Definition) Overrides() forcing.Overrides {
	return forcing.Overrides{
		ClimateShock:       d.ClimateShock,
		InterventionStart:  d.InterventionStart,
		InterventionEffect: d.InterventionEffect,
	}
}

// Model builds the scenario's forcing model from the shared parameters.
func (d Definition) Model(params forcing.Params) forcing.Model {
	return forcing.New(params, d.Overrides())
}

// Summary is the per-scenario reduction of a trajectory.
type Summary struct {
	Scenario string
	PeakI    float64
	PeakDay  int     // index into the evaluation-time sequence
	PeakTime float64 // evaluation time at PeakDay
}

// Peak returns the maximum of values and the first index attaining it.
// Ties resolve to the earliest index.
func Peak(values []float64) (float64, int, error) {
	if len(values) == 0 {
		return 0, 0, ErrEmptySeries
	}
	idx := floats.MaxIdx(values)
	return values[idx], idx, nil
}

// Summarize reduces an infectious series sampled at times.
func Summarize(name string, times, infectious []float64) (Summary, error) {
	peak, idx, err := Peak(infectious)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Scenario: name,
		PeakI:    peak,
		PeakDay:  idx,
		PeakTime: times[idx],
	}, nil
}

// SortedNames returns the scenario names in ascending order.
func SortedNames(defs map[string]Definition) []string {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortSummaries orders summaries by scenario name ascending.
func SortSummaries(rows []Summary) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Scenario < rows[j].Scenario
	})
}
