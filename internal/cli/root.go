package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/example/climseir/internal/version"
	"github.com/example/climseir/internal/wire"
)

var (
	verbose bool
	dbPath  string

	logger = zap.NewNop()
)

// RootCmd returns the climseir root command with every subcommand attached.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "climseir",
		Short:   "Climate-forced SEIR scenario simulator",
		Version: version.String(),
		Long: `climseir integrates a compartmental epidemic model whose transmission rate
follows seasonal and climate forcing, and compares counterfactual scenarios
(baseline climate, perturbed climate, intervention) by their infection peak.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l.Named("climseir")
			wire.SetLogger(logger)
			wire.SetDBPath(dbPath)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "Result database path (default ~/.climseir/climseir.db)")

	root.AddCommand(InitCmd())
	root.AddCommand(RunCmd())
	root.AddCommand(WeeklyCmd())
	root.AddCommand(RunsCmd())

	return root
}
