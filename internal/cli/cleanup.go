package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/beriox/bexp/internal/experiment"
)

var cleanupMaxAge time.Duration

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove recorded events older than the retention window",
	Long: `Remove recorded events older than --max-age from every experiment.
Safe to run repeatedly; a second run over the same horizon removes nothing.

Example:
  bexp cleanup --max-age 2160h`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().DurationVar(&cleanupMaxAge, "max-age", experiment.DefaultRetention, "retention window")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *experiment.Engine) error {
		removed := e.CleanupOldResults(cleanupMaxAge)
		fmt.Printf("Removed %d events older than %s\n", removed, cleanupMaxAge)
		return nil
	})
}
