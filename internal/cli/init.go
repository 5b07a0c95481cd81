package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/climseir/internal/config"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the reference scenario configuration",
		Long: `Write the reference three-scenario configuration (baseline, wetter_climate,
intervention) to climseir.yaml, or to the given path. Use a .json extension
for JSON output.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultFileName
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists\nHint: use --force to overwrite", path)
			}

			if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration written to %s\n", path)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintf(out, "  climseir run --config %s\n", path)
			fmt.Fprintf(out, "  climseir weekly --config %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
