package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/beriox/bexp/internal/experiment"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export experiment data",
	Long: `Export experiment data in CSV or JSON format.

JSON exports the full bundle (config, raw events, stats, significance),
which can be replayed into a fresh instance. CSV exports the raw events.

Examples:
  bexp export pricing-page --format json > pricing-page.json
  bexp export pricing-page --format csv > pricing-page.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format (csv or json)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	id := args[0]

	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withEngine(func(e *experiment.Engine) error {
		bundle, err := e.ExportExperimentData(id)
		if err != nil {
			return fmt.Errorf("experiment '%s' not found", id)
		}

		if exportFormat == "csv" {
			return exportCSV(bundle.Results)
		}
		return exportJSON(bundle)
	})
}

func exportCSV(events []experiment.Result) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "variant", "goal", "user_id", "session_id", "value"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, ev := range events {
		value := ""
		if ev.Value != nil {
			value = strconv.FormatFloat(*ev.Value, 'f', -1, 64)
		}
		row := []string{
			strconv.FormatInt(ev.Timestamp.Unix(), 10),
			ev.VariantID,
			ev.GoalID,
			ev.UserID,
			ev.SessionID,
			value,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return nil
}

func exportJSON(bundle *experiment.Export) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(bundle)
}
