package primary

import (
	"context"

	"github.com/example/climseir/internal/core/forcing"
	"github.com/example/climseir/internal/core/scenario"
	"github.com/example/climseir/internal/core/seir"
)

// SimulationService defines the primary port for scenario simulation.
type SimulationService interface {
	// RunScenarios integrates every scenario with the continuous solver and
	// reduces each trajectory to its peak. Any scenario failure aborts the batch.
	RunScenarios(ctx context.Context, req RunScenariosRequest) (*RunScenariosResponse, error)

	// RunWeekly steps every scenario with the discrete weekly recurrence.
	RunWeekly(ctx context.Context, req RunWeeklyRequest) (*RunWeeklyResponse, error)

	// ListRuns retrieves persisted runs, newest first.
	ListRuns(ctx context.Context) ([]*Run, error)

	// GetRun retrieves a persisted run and its summary table.
	GetRun(ctx context.Context, runID string) (*RunDetail, error)

	// GetTrajectory retrieves one persisted scenario trajectory.
	GetTrajectory(ctx context.Context, runID, scenarioName string) (*seir.Trajectory, error)

	// DeleteRun removes a persisted run and everything recorded under it.
	DeleteRun(ctx context.Context, runID string) error
}

// RunScenariosRequest contains the shared parameters and the scenario set
// of one continuous batch.
type RunScenariosRequest struct {
	Label      string
	Population float64
	Initial    seir.State
	Rates      seir.Rates
	Forcing    forcing.Params
	Scenarios  map[string]scenario.Definition
	Times      []float64
	Solver     seir.SolverOptions
	Workers    int    // 0 uses GOMAXPROCS
	Persist    bool   // save results through the run repository
	OutputDir  string // when set, write CSV tables here
}

// RunScenariosResponse contains the batch results. Summaries are sorted by
// scenario name.
type RunScenariosResponse struct {
	RunID        string
	Summaries    []scenario.Summary
	Trajectories map[string]*seir.Trajectory
	Stats        map[string]seir.SolverStats
	Files        []string
}

// RunWeeklyRequest contains the parameters of one discrete weekly batch.
// Rates and Forcing.Beta0 are per step.
type RunWeeklyRequest struct {
	Label      string
	Population float64
	Initial    seir.State
	Rates      seir.Rates
	Forcing    forcing.Params
	Scenarios  map[string]scenario.Definition
	Steps      int
	StepDays   float64 // days per step used to sample the forcing; 0 means 7
	Persist    bool
	OutputDir  string
}

// WeeklyScenarioResult is the outcome of one weekly scenario.
type WeeklyScenarioResult struct {
	Summary             scenario.Summary
	Trajectory          *seir.Trajectory
	Clamps              int
	ClampsByCompartment [seir.NumCompartments]int
	MassDrift           float64
}

// RunWeeklyResponse contains per-scenario results sorted by scenario name.
type RunWeeklyResponse struct {
	RunID   string
	Results []WeeklyScenarioResult
	Files   []string
}

// Run represents a persisted run at the port boundary.
type Run struct {
	ID            string
	Label         string
	Kind          string // "continuous" or "weekly"
	Population    float64
	ScenarioCount int
	CreatedAt     string
}

// RunDetail is a persisted run with its summary table.
type RunDetail struct {
	Run
	Summaries []scenario.Summary
}
