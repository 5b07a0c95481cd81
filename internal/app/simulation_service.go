package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/climseir/internal/core/scenario"
	"github.com/example/climseir/internal/core/seir"
	"github.com/example/climseir/internal/ctxutil"
	"github.com/example/climseir/internal/ports/primary"
	"github.com/example/climseir/internal/ports/secondary"
)

// DefaultStepDays is the forcing sample spacing of the weekly stepper.
const DefaultStepDays = 7.0

// stampLayout names output tables, e.g. summary_20240131_154500.csv.
const stampLayout = "20060102_150405"

// ErrNoRepository is returned when persistence is requested without a repository.
var ErrNoRepository = errors.New("no run repository configured")

// SimulationServiceImpl implements the SimulationService interface.
// It is the scenario runner: it fans independent scenarios out to a
// bounded worker pool, joins, and canonicalizes the output by name.
type SimulationServiceImpl struct {
	runRepo     secondary.RunRepository
	tableWriter secondary.TableWriter
	metrics     secondary.SolverMetrics
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

// NewSimulationService creates a new SimulationService with injected dependencies.
// runRepo, tableWriter and metrics may be nil when their features are unused.
func NewSimulationService(runRepo secondary.RunRepository, tableWriter secondary.TableWriter, metrics secondary.SolverMetrics, logger *zap.Logger) *SimulationServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulationServiceImpl{
		runRepo:     runRepo,
		tableWriter: tableWriter,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

type continuousOutcome struct {
	summary    scenario.Summary
	trajectory *seir.Trajectory
	stats      seir.SolverStats
}

// RunScenarios integrates every scenario and reduces it to its peak.
func (s *SimulationServiceImpl) RunScenarios(ctx context.Context, req primary.RunScenariosRequest) (*primary.RunScenariosResponse, error) {
	guard := scenario.CanRun(scenario.RunContext{
		Population: req.Population,
		Initial:    req.Initial,
		Rates:      req.Rates,
		Forcing:    req.Forcing,
		Scenarios:  req.Scenarios,
		Times:      req.Times,
	})
	if err := guard.Error(); err != nil {
		return nil, err
	}
	if req.Persist && s.runRepo == nil {
		return nil, ErrNoRepository
	}

	runID := s.newID()
	ctx = ctxutil.WithRunID(ctx, runID)
	log := s.log(ctx)

	names := scenario.SortedNames(req.Scenarios)
	outcomes := make([]continuousOutcome, len(names))

	workers := req.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	log.Info("running scenarios",
		zap.Int("scenarios", len(names)),
		zap.Int("workers", workers),
		zap.Int("times", len(req.Times)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		i, name := i, name
		def := req.Scenarios[name]
		g.Go(func() error {
			out, err := s.integrateScenario(gctx, name, def, req)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", name, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("scenario batch aborted", zap.Error(err))
		return nil, err
	}

	resp := &primary.RunScenariosResponse{
		Summaries:    make([]scenario.Summary, len(names)),
		Trajectories: make(map[string]*seir.Trajectory, len(names)),
		Stats:        make(map[string]seir.SolverStats, len(names)),
	}
	summaries := make([]*secondary.SummaryRecord, len(names))
	points := make(map[string][]*secondary.TrajectoryPointRecord, len(names))
	for i, out := range outcomes {
		name := out.summary.Scenario
		resp.Summaries[i] = out.summary
		resp.Trajectories[name] = out.trajectory
		resp.Stats[name] = out.stats
		summaries[i] = summaryToRecord(runID, out.summary, 0)
		points[name] = trajectoryToRecords(runID, name, out.trajectory)
	}
	scenario.SortSummaries(resp.Summaries)

	run := &secondary.RunRecord{
		ID:            runID,
		Label:         req.Label,
		Kind:          secondary.RunKindContinuous,
		Population:    req.Population,
		ScenarioCount: len(names),
	}
	files, persisted, err := s.emit(ctx, run, summaries, points, req.Persist, req.OutputDir)
	if err != nil {
		return nil, err
	}
	if persisted {
		resp.RunID = runID
	}
	resp.Files = files

	log.Info("scenario batch complete", zap.Int("scenarios", len(names)), zap.Bool("persisted", persisted))
	return resp, nil
}

func (s *SimulationServiceImpl) integrateScenario(ctx context.Context, name string, def scenario.Definition, req primary.RunScenariosRequest) (continuousOutcome, error) {
	start := s.now()
	traj, stats, err := seir.Integrate(ctx, seir.Input{
		Initial:    req.Initial,
		Population: req.Population,
		Rates:      req.Rates,
		Forcing:    def.Model(req.Forcing),
		Times:      req.Times,
		Options:    req.Solver,
	})
	if s.metrics != nil {
		s.metrics.ObserveIntegration(name, stats.Steps, stats.Rejected, stats.Evaluations, s.now().Sub(start), err != nil)
	}
	if err != nil {
		return continuousOutcome{}, err
	}

	summary, err := scenario.Summarize(name, traj.Time, traj.I)
	if err != nil {
		return continuousOutcome{}, err
	}

	s.log(ctx).Debug("scenario integrated",
		zap.String("scenario", name),
		zap.Int("steps", stats.Steps),
		zap.Int("rejected", stats.Rejected),
		zap.Float64("peak_i", summary.PeakI),
		zap.Int("peak_day", summary.PeakDay))

	return continuousOutcome{summary: summary, trajectory: traj, stats: stats}, nil
}

// RunWeekly steps every scenario with the discrete weekly recurrence. Each
// scenario's forcing sequence is its forcing model sampled every StepDays.
func (s *SimulationServiceImpl) RunWeekly(ctx context.Context, req primary.RunWeeklyRequest) (*primary.RunWeeklyResponse, error) {
	guard := scenario.CanRunWeekly(scenario.WeeklyContext{
		Population: req.Population,
		Initial:    req.Initial,
		Rates:      req.Rates,
		Forcing:    req.Forcing,
		Scenarios:  req.Scenarios,
		Steps:      req.Steps,
	})
	if err := guard.Error(); err != nil {
		return nil, err
	}
	if req.Persist && s.runRepo == nil {
		return nil, ErrNoRepository
	}

	stepDays := req.StepDays
	if stepDays <= 0 {
		stepDays = DefaultStepDays
	}
	sampleTimes := make([]float64, req.Steps)
	for k := range sampleTimes {
		sampleTimes[k] = float64(k) * stepDays
	}

	runID := s.newID()
	ctx = ctxutil.WithRunID(ctx, runID)
	log := s.log(ctx)

	names := scenario.SortedNames(req.Scenarios)
	resp := &primary.RunWeeklyResponse{Results: make([]primary.WeeklyScenarioResult, 0, len(names))}
	summaries := make([]*secondary.SummaryRecord, 0, len(names))
	points := make(map[string][]*secondary.TrajectoryPointRecord, len(names))

	for _, name := range names {
		model := req.Scenarios[name].Model(req.Forcing)
		res, err := seir.StepWeekly(seir.WeeklyInput{
			Initial:    req.Initial,
			Population: req.Population,
			Rates:      req.Rates,
			Beta0:      req.Forcing.Beta0,
			Forcing:    model.Multipliers(sampleTimes),
		})
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", name, err)
		}

		summary, err := scenario.Summarize(name, res.Trajectory.Time, res.Trajectory.I)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", name, err)
		}

		if s.metrics != nil {
			for i, count := range res.ClampsByCompartment {
				s.metrics.ObserveClamps(name, seir.Compartments[i], count)
			}
		}
		if res.Clamps > 0 {
			log.Debug("weekly stepper clamped negative updates",
				zap.String("scenario", name),
				zap.Int("clamps", res.Clamps),
				zap.Float64("mass_drift", res.MassDrift(req.Population)))
		}

		resp.Results = append(resp.Results, primary.WeeklyScenarioResult{
			Summary:             summary,
			Trajectory:          res.Trajectory,
			Clamps:              res.Clamps,
			ClampsByCompartment: res.ClampsByCompartment,
			MassDrift:           res.MassDrift(req.Population),
		})
		summaries = append(summaries, summaryToRecord(runID, summary, res.Clamps))
		points[name] = trajectoryToRecords(runID, name, res.Trajectory)
	}

	run := &secondary.RunRecord{
		ID:            runID,
		Label:         req.Label,
		Kind:          secondary.RunKindWeekly,
		Population:    req.Population,
		ScenarioCount: len(names),
	}
	files, persisted, err := s.emit(ctx, run, summaries, points, req.Persist, req.OutputDir)
	if err != nil {
		return nil, err
	}
	if persisted {
		resp.RunID = runID
	}
	resp.Files = files

	log.Info("weekly batch complete", zap.Int("scenarios", len(names)), zap.Int("steps", req.Steps))
	return resp, nil
}

// emit hands finished results to the output collaborators.
func (s *SimulationServiceImpl) emit(ctx context.Context, run *secondary.RunRecord, summaries []*secondary.SummaryRecord, points map[string][]*secondary.TrajectoryPointRecord, persist bool, outputDir string) ([]string, bool, error) {
	var files []string
	if outputDir != "" {
		if s.tableWriter == nil {
			return nil, false, fmt.Errorf("no table writer configured for output dir %s", outputDir)
		}
		written, err := s.tableWriter.WriteTables(ctx, secondary.TableSet{
			Dir:          outputDir,
			Stamp:        s.now().Format(stampLayout),
			Summaries:    summaries,
			Trajectories: points,
		})
		if err != nil {
			return nil, false, fmt.Errorf("failed to write tables: %w", err)
		}
		files = written
	}

	if !persist {
		return files, false, nil
	}

	var all []*secondary.TrajectoryPointRecord
	for _, sr := range summaries {
		all = append(all, points[sr.Scenario]...)
	}
	if err := s.runRepo.SaveRun(ctx, run, summaries, all); err != nil {
		return nil, false, fmt.Errorf("failed to save run: %w", err)
	}
	return files, true, nil
}

// ListRuns retrieves persisted runs, newest first.
func (s *SimulationServiceImpl) ListRuns(ctx context.Context) ([]*primary.Run, error) {
	if s.runRepo == nil {
		return nil, ErrNoRepository
	}
	records, err := s.runRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*primary.Run, len(records))
	for i, r := range records {
		runs[i] = s.recordToRun(r)
	}
	return runs, nil
}

// GetRun retrieves a persisted run and its summary table.
func (s *SimulationServiceImpl) GetRun(ctx context.Context, runID string) (*primary.RunDetail, error) {
	if s.runRepo == nil {
		return nil, ErrNoRepository
	}
	record, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	rows, err := s.runRepo.ListSummaries(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}

	detail := &primary.RunDetail{Run: *s.recordToRun(record)}
	for _, r := range rows {
		detail.Summaries = append(detail.Summaries, scenario.Summary{
			Scenario: r.Scenario,
			PeakI:    r.PeakI,
			PeakDay:  r.PeakDay,
			PeakTime: r.PeakTime,
		})
	}
	scenario.SortSummaries(detail.Summaries)
	return detail, nil
}

// GetTrajectory retrieves one persisted scenario trajectory.
func (s *SimulationServiceImpl) GetTrajectory(ctx context.Context, runID, scenarioName string) (*seir.Trajectory, error) {
	if s.runRepo == nil {
		return nil, ErrNoRepository
	}
	records, err := s.runRepo.ListTrajectory(ctx, runID, scenarioName)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no trajectory for scenario %q in run %s", scenarioName, runID)
	}

	traj := &seir.Trajectory{}
	for _, p := range records {
		traj.Time = append(traj.Time, p.Time)
		traj.S = append(traj.S, p.S)
		traj.E = append(traj.E, p.E)
		traj.I = append(traj.I, p.I)
		traj.R = append(traj.R, p.R)
	}
	return traj, nil
}

// DeleteRun removes a persisted run.
func (s *SimulationServiceImpl) DeleteRun(ctx context.Context, runID string) error {
	if s.runRepo == nil {
		return ErrNoRepository
	}
	return s.runRepo.Delete(ctx, runID)
}

// Helper methods

func (s *SimulationServiceImpl) log(ctx context.Context) *zap.Logger {
	logger := ctxutil.LoggerFromContext(ctx, s.logger)
	if runID := ctxutil.RunIDFromContext(ctx); runID != "" {
		logger = logger.With(zap.String("run_id", runID))
	}
	return logger
}

func (s *SimulationServiceImpl) recordToRun(r *secondary.RunRecord) *primary.Run {
	return &primary.Run{
		ID:            r.ID,
		Label:         r.Label,
		Kind:          r.Kind,
		Population:    r.Population,
		ScenarioCount: r.ScenarioCount,
		CreatedAt:     r.CreatedAt,
	}
}

func summaryToRecord(runID string, sum scenario.Summary, clamps int) *secondary.SummaryRecord {
	return &secondary.SummaryRecord{
		RunID:    runID,
		Scenario: sum.Scenario,
		PeakI:    sum.PeakI,
		PeakDay:  sum.PeakDay,
		PeakTime: sum.PeakTime,
		Clamps:   clamps,
	}
}

func trajectoryToRecords(runID, name string, traj *seir.Trajectory) []*secondary.TrajectoryPointRecord {
	out := make([]*secondary.TrajectoryPointRecord, traj.Len())
	for i := range out {
		out[i] = &secondary.TrajectoryPointRecord{
			RunID:    runID,
			Scenario: name,
			Index:    i,
			Time:     traj.Time[i],
			S:        traj.S[i],
			E:        traj.E[i],
			I:        traj.I[i],
			R:        traj.R[i],
		}
	}
	return out
}

// Ensure SimulationServiceImpl implements the interface.
var _ primary.SimulationService = (*SimulationServiceImpl)(nil)

