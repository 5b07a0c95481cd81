package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/climseir/internal/core/scenario"
	"github.com/example/climseir/internal/core/seir"
	"github.com/example/climseir/internal/ports/primary"
)

// SimulationAdapter is a thin adapter that translates CLI operations to
// SimulationService calls and renders the results.
type SimulationAdapter struct {
	service primary.SimulationService
	out     io.Writer
}

// NewSimulationAdapter creates a new SimulationAdapter with the given service.
func NewSimulationAdapter(service primary.SimulationService, out io.Writer) *SimulationAdapter {
	return &SimulationAdapter{
		service: service,
		out:     out,
	}
}

var (
	green = color.New(color.FgGreen)
	amber = color.New(color.FgYellow)
)

// Run executes a continuous batch and prints its summary table.
func (a *SimulationAdapter) Run(ctx context.Context, req primary.RunScenariosRequest) (*primary.RunScenariosResponse, error) {
	resp, err := a.service.RunScenarios(ctx, req)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "%s %d scenario(s) integrated over %d time points\n", green.Sprint("✓"), len(resp.Summaries), len(req.Times))
	fmt.Fprintln(a.out)
	a.printSummaries(resp.Summaries)

	fmt.Fprintln(a.out)
	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tSTEPS\tREJECTED\tEVALUATIONS")
	fmt.Fprintln(w, "--------\t-----\t--------\t-----------")
	for _, s := range resp.Summaries {
		st := resp.Stats[s.Scenario]
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", s.Scenario, st.Steps, st.Rejected, st.Evaluations)
	}
	w.Flush()

	a.printFooter(resp.RunID, resp.Files)
	return resp, nil
}

// Weekly executes a discrete weekly batch and prints the summary table with
// clamp diagnostics.
func (a *SimulationAdapter) Weekly(ctx context.Context, req primary.RunWeeklyRequest) (*primary.RunWeeklyResponse, error) {
	resp, err := a.service.RunWeekly(ctx, req)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "%s %d scenario(s) stepped for %d weeks\n", green.Sprint("✓"), len(resp.Results), req.Steps)
	fmt.Fprintln(a.out)

	summaries := make([]scenario.Summary, len(resp.Results))
	for i, r := range resp.Results {
		summaries[i] = r.Summary
	}
	a.printSummaries(summaries)

	for _, r := range resp.Results {
		if r.Clamps == 0 {
			continue
		}
		fmt.Fprintf(a.out, "\n%s %s: %d clamp(s)", amber.Sprint("⚠"), r.Summary.Scenario, r.Clamps)
		for i, n := range r.ClampsByCompartment {
			if n > 0 {
				fmt.Fprintf(a.out, " %s=%d", seir.Compartments[i], n)
			}
		}
		fmt.Fprintf(a.out, ", population drift %+.4g\n", r.MassDrift)
	}

	a.printFooter(resp.RunID, resp.Files)
	return resp, nil
}

// List lists persisted runs.
func (a *SimulationAdapter) List(ctx context.Context) ([]*primary.Run, error) {
	runs, err := a.service.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(a.out, "No runs found.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Persist your first run:")
		fmt.Fprintln(a.out, "  climseir run --persist")
		return runs, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSCENARIOS\tPOPULATION\tLABEL\tCREATED")
	fmt.Fprintln(w, "--\t----\t---------\t----------\t-----\t-------")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.0f\t%s\t%s\n",
			r.ID,
			r.Kind,
			r.ScenarioCount,
			r.Population,
			r.Label,
			r.CreatedAt,
		)
	}
	w.Flush()
	return runs, nil
}

// Show displays a persisted run and its summary table.
func (a *SimulationAdapter) Show(ctx context.Context, runID string) (*primary.RunDetail, error) {
	detail, err := a.service.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	fmt.Fprintf(a.out, "\nRun: %s\n", detail.ID)
	if detail.Label != "" {
		fmt.Fprintf(a.out, "Label:      %s\n", detail.Label)
	}
	fmt.Fprintf(a.out, "Kind:       %s\n", detail.Kind)
	fmt.Fprintf(a.out, "Population: %.0f\n", detail.Population)
	fmt.Fprintf(a.out, "Created:    %s\n", detail.CreatedAt)
	fmt.Fprintln(a.out)
	a.printSummaries(detail.Summaries)

	return detail, nil
}

// Trajectory prints one persisted scenario trajectory.
func (a *SimulationAdapter) Trajectory(ctx context.Context, runID, scenarioName string) (*seir.Trajectory, error) {
	traj, err := a.service.GetTrajectory(ctx, runID, scenarioName)
	if err != nil {
		return nil, fmt.Errorf("failed to get trajectory: %w", err)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "t\tS\tE\tI\tR\t")
	for i := 0; i < traj.Len(); i++ {
		s := traj.At(i)
		fmt.Fprintf(w, "%g\t%.2f\t%.2f\t%.2f\t%.2f\t\n", traj.Time[i], s.S, s.E, s.I, s.R)
	}
	w.Flush()
	return traj, nil
}

// Delete removes a persisted run.
func (a *SimulationAdapter) Delete(ctx context.Context, runID string) error {
	if err := a.service.DeleteRun(ctx, runID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Run %s deleted\n", green.Sprint("✓"), runID)
	return nil
}

func (a *SimulationAdapter) printSummaries(summaries []scenario.Summary) {
	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	// Headers stay uncoloured: escape bytes would count toward column widths.
	fmt.Fprintln(w, "SCENARIO\tPEAK_I\tPEAK_DAY")
	fmt.Fprintln(w, "--------\t------\t--------")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%.1f\t%d\n", s.Scenario, s.PeakI, s.PeakDay)
	}
	w.Flush()
}

func (a *SimulationAdapter) printFooter(runID string, files []string) {
	if len(files) > 0 {
		fmt.Fprintln(a.out)
		for _, f := range files {
			fmt.Fprintf(a.out, "  wrote %s\n", f)
		}
	}
	if runID != "" {
		fmt.Fprintf(a.out, "\n%s Saved as run %s\n", green.Sprint("✓"), runID)
	}
}
