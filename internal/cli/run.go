package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/climseir/internal/ctxutil"
	"github.com/example/climseir/internal/wire"
)

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var (
		configPath  string
		workers     int
		persist     bool
		outDir      string
		label       string
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Integrate every scenario with the adaptive solver",
		Long: `Integrate every configured scenario over the horizon with the adaptive
Dormand-Prince solver and print the peak infectious value and peak day of
each, sorted by scenario name. Any scenario failure aborts the batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			req := cfg.ToRunRequest()
			if cmd.Flags().Changed("workers") {
				req.Workers = workers
			}
			if outDir != "" {
				req.OutputDir = outDir
			}
			if label != "" {
				req.Label = label
			}
			req.Persist = persist

			ctx := ctxutil.WithLogger(cmd.Context(), logger)
			if _, err := wire.SimulationAdapterWithOutput(cmd.OutOrStdout()).Run(ctx, req); err != nil {
				return err
			}

			if showMetrics {
				return wire.Metrics().WriteText(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (.yaml or .json)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent scenarios (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&persist, "persist", false, "Save results to the result database")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Write CSV tables to this directory")
	cmd.Flags().StringVar(&label, "label", "", "Label stored with a persisted run")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print solver metrics in Prometheus text format")

	return cmd
}
