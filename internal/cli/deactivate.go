package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beriox/bexp/internal/experiment"
)

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Deactivate an experiment",
	Long: `Flip an experiment's kill-switch and stamp its end date. Assignment
requests for a deactivated experiment return no variant immediately,
regardless of the original time window.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeactivate,
}

func init() {
	rootCmd.AddCommand(deactivateCmd)
}

func runDeactivate(cmd *cobra.Command, args []string) error {
	id := args[0]

	return withEngine(func(e *experiment.Engine) error {
		if _, ok := e.Experiment(id); !ok {
			return fmt.Errorf("experiment '%s' not found", id)
		}
		e.DeactivateExperiment(id)
		fmt.Printf("Deactivated experiment '%s'\n", id)
		return nil
	})
}
