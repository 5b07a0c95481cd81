package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/climseir/internal/ctxutil"
	"github.com/example/climseir/internal/wire"
)

// RunsCmd returns the runs command group
func RunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect persisted runs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List persisted runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.SimulationAdapterWithOutput(cmd.OutOrStdout()).List(ctxutil.WithLogger(cmd.Context(), logger))
			return err
		},
	})

	var trajectory string
	show := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show a run's summary table, or one scenario trajectory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter := wire.SimulationAdapterWithOutput(cmd.OutOrStdout())
			if trajectory != "" {
				_, err := adapter.Trajectory(ctxutil.WithLogger(cmd.Context(), logger), args[0], trajectory)
				return err
			}
			_, err := adapter.Show(ctxutil.WithLogger(cmd.Context(), logger), args[0])
			return err
		},
	}
	show.Flags().StringVarP(&trajectory, "trajectory", "t", "", "Print the trajectory of this scenario")
	cmd.AddCommand(show)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [run-id]",
		Short: "Delete a persisted run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.SimulationAdapterWithOutput(cmd.OutOrStdout()).Delete(ctxutil.WithLogger(cmd.Context(), logger), args[0])
		},
	})

	return cmd
}
