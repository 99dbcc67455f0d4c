package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beriox/bexp/internal/experiment"
)

var resultsGoal string

var resultsCmd = &cobra.Command{
	Use:   "results <id>",
	Short: "Show detailed results for an experiment",
	Long:  `Show per-variant statistics, confidence intervals, and significance against the baseline.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

func init() {
	resultsCmd.Flags().StringVarP(&resultsGoal, "goal", "g", "default", "goal id to report against")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	id := args[0]

	return withEngine(func(e *experiment.Engine) error {
		cfg, ok := e.Experiment(id)
		if !ok {
			return fmt.Errorf("experiment '%s' not found", id)
		}

		stats := e.ExperimentStats(id)
		significance := e.CalculateSignificance(id, resultsGoal)

		// Header
		fmt.Printf("EXPERIMENT: %s\n", cfg.ID)
		status := "ACTIVE"
		if !cfg.IsActive {
			status = "INACTIVE"
		}
		fmt.Printf("STATUS: %s\n", status)
		fmt.Printf("BASELINE: %s\n", cfg.BaselineVariant)
		fmt.Printf("STARTED: %s\n", cfg.StartDate.Format("2006-01-02"))
		fmt.Println()

		// Table
		fmt.Println("VARIANT           IMPRESSIONS  CONVERSIONS  RATE     REVENUE    95% CI")
		fmt.Println(strings.Repeat("─", 74))

		for _, s := range stats {
			ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", s.CILower*100, s.CIUpper*100)
			if s.Impressions == 0 {
				ciStr = "N/A"
			}

			name := s.VariantID
			if len(name) > 16 {
				name = name[:13] + "..."
			}

			indicator := ""
			if s.VariantID == cfg.BaselineVariant {
				indicator = " (baseline)"
			}

			fmt.Printf("%-16s  %-11d  %-11d  %-7s  %-9.2f  %s%s\n",
				name,
				s.Impressions,
				s.Conversions,
				formatPercent(s.ConversionRate),
				s.Revenue,
				ciStr,
				indicator,
			)
		}

		fmt.Println()

		if len(significance) == 0 {
			fmt.Println("Significance: not computable (baseline missing or fewer than 2 variants)")
			return nil
		}

		for _, s := range stats {
			sig, ok := significance[s.VariantID]
			if !ok {
				continue
			}
			verdict := "not significant"
			if sig.IsSignificant {
				verdict = "SIGNIFICANT"
			}
			fmt.Printf("%s vs %s: %+.1f%% lift, p=%.4f (%s)\n",
				sig.VariantID, sig.BaselineID, sig.Improvement, sig.PValue, verdict)
		}

		return nil
	})
}
