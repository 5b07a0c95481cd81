package secondary

import (
	"context"
	"time"
)

// Run kinds.
const (
	RunKindContinuous = "continuous"
	RunKindWeekly     = "weekly"
)

// RunRepository defines the secondary port for simulation result storage.
// Only results are stored; scenario configurations are supplied each run.
type RunRepository interface {
	// SaveRun persists a run with its summaries and trajectory points atomically.
	SaveRun(ctx context.Context, run *RunRecord, summaries []*SummaryRecord, points []*TrajectoryPointRecord) error

	// GetByID retrieves a run by its ID.
	GetByID(ctx context.Context, id string) (*RunRecord, error)

	// List retrieves all runs, newest first.
	List(ctx context.Context) ([]*RunRecord, error)

	// ListSummaries retrieves the summaries of a run ordered by scenario name.
	ListSummaries(ctx context.Context, runID string) ([]*SummaryRecord, error)

	// ListTrajectory retrieves the points of one scenario ordered by index.
	ListTrajectory(ctx context.Context, runID, scenario string) ([]*TrajectoryPointRecord, error)

	// Delete removes a run; summaries and points cascade.
	Delete(ctx context.Context, id string) error
}

// RunRecord represents a run as stored in persistence.
type RunRecord struct {
	ID            string
	Label         string
	Kind          string
	Population    float64
	ScenarioCount int
	CreatedAt     string
}

// SummaryRecord represents one row of a run's summary table.
type SummaryRecord struct {
	RunID    string
	Scenario string
	PeakI    float64
	PeakDay  int
	PeakTime float64
	Clamps   int
}

// TrajectoryPointRecord represents one time point of a scenario trajectory.
type TrajectoryPointRecord struct {
	RunID    string
	Scenario string
	Index    int
	Time     float64
	S        float64
	E        float64
	I        float64
	R        float64
}

// TableWriter defines the secondary port for writing result tables to files.
type TableWriter interface {
	// WriteTables writes the summary table and one trajectory table per
	// scenario into dir, returning the written paths.
	WriteTables(ctx context.Context, set TableSet) ([]string, error)
}

// TableSet is one batch of tables to write.
type TableSet struct {
	Dir          string
	Stamp        string
	Summaries    []*SummaryRecord
	Trajectories map[string][]*TrajectoryPointRecord
}

// SolverMetrics defines the secondary port for numerical diagnostics.
type SolverMetrics interface {
	// ObserveIntegration records the work of one continuous integration.
	ObserveIntegration(scenario string, steps, rejected, evaluations int, elapsed time.Duration, failed bool)

	// ObserveClamps records how often the weekly stepper clamped a compartment.
	ObserveClamps(scenario, compartment string, count int)
}
