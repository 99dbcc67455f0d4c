package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/beriox/bexp/internal/experiment"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active experiments",
	Long:  `List all active experiments with their variants and event totals.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *experiment.Engine) error {
		active := e.ActiveExperiments()

		if len(active) == 0 {
			fmt.Println("No active experiments.")
			fmt.Println()
			fmt.Println("Create one with:")
			fmt.Println("  bexp create my-experiment --variants \"control=50,variant_a=50\"")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tVARIANTS\tIMPRESSIONS\tCONVERSIONS\tSTARTED")

		for _, cfg := range active {
			totalImpressions := 0
			totalConversions := 0
			for _, s := range e.ExperimentStats(cfg.ID) {
				totalImpressions += s.Impressions
				totalConversions += s.Conversions
			}

			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
				cfg.ID,
				cfg.Type,
				len(cfg.Variants),
				totalImpressions,
				totalConversions,
				cfg.StartDate.Format("2006-01-02"),
			)
		}

		return w.Flush()
	})
}
