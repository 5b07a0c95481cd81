package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/climseir/internal/ctxutil"
	"github.com/example/climseir/internal/wire"
)

// WeeklyCmd returns the weekly command
func WeeklyCmd() *cobra.Command {
	var (
		configPath  string
		steps       int
		persist     bool
		outDir      string
		label       string
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Step every scenario with the discrete weekly recurrence",
		Long: `Step every configured scenario with the explicit weekly recurrence, using
forcing sampled once per week. Negative updates are clamped to zero and
reported; clamping lets the population total drift from N, so results are
not interchangeable with 'climseir run'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			req := cfg.ToWeeklyRequest()
			if cmd.Flags().Changed("steps") {
				req.Steps = steps
			}
			if outDir != "" {
				req.OutputDir = outDir
			}
			if label != "" {
				req.Label = label
			}
			req.Persist = persist

			ctx := ctxutil.WithLogger(cmd.Context(), logger)
			if _, err := wire.SimulationAdapterWithOutput(cmd.OutOrStdout()).Weekly(ctx, req); err != nil {
				return err
			}

			if showMetrics {
				return wire.Metrics().WriteText(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (.yaml or .json)")
	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "Number of weekly snapshots")
	cmd.Flags().BoolVar(&persist, "persist", false, "Save results to the result database")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Write CSV tables to this directory")
	cmd.Flags().StringVar(&label, "label", "", "Label stored with a persisted run")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print clamp metrics in Prometheus text format")

	return cmd
}
