package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/horizon/internal/config"
)

// defaultScenarioPath is where init writes when no path is given.
const defaultScenarioPath = "horizon.yaml"

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default scenario to a file",
	Long: `Write the built-in scenario to a YAML file as a starting point.

The file defaults to horizon.yaml in the current directory. Existing files are
never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultScenarioPath
		if len(args) > 0 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]string{"path": path})
		}
		PrintSuccess(fmt.Sprintf("Wrote %s", path))
		return nil
	},
}
