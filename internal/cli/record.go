package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beriox/bexp/internal/experiment"
)

func init() {
	rootCmd.AddCommand(newRecordCmd())
}

func newRecordCmd() *cobra.Command {
	var (
		variantID string
		goalID    string
		userID    string
		sessionID string
		value     float64
	)

	cmd := &cobra.Command{
		Use:   "record <experiment>",
		Short: "Record an impression or conversion event",
		Long: `Record an event against an experiment variant. An event with a goal is a
conversion; without one it is a bare impression. Recording never fails for
unknown experiment or variant ids.

Examples:
  bexp record pricing-page --variant control --user u-123
  bexp record pricing-page --variant variant_a --goal signup --user u-123
  bexp record pricing-page --variant variant_a --goal purchase --value 29.99`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			experimentID := args[0]

			return withEngine(func(e *experiment.Engine) error {
				if goalID == "" {
					e.RecordImpression(experimentID, variantID, userID, sessionID, nil)
					fmt.Printf("Recorded impression for %s/%s\n", experimentID, variantID)
					return nil
				}

				var v *float64
				if cmd.Flags().Changed("value") {
					v = &value
				}
				e.RecordConversion(experimentID, variantID, goalID, userID, sessionID, v, nil)
				fmt.Printf("Recorded conversion for %s/%s (goal %s)\n", experimentID, variantID, goalID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&variantID, "variant", "v", "", "variant id (required)")
	cmd.Flags().StringVarP(&goalID, "goal", "g", "", "goal id (marks the event as a conversion)")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id")
	cmd.Flags().Float64Var(&value, "value", 0, "monetary value for the conversion")
	cmd.MarkFlagRequired("variant")

	return cmd
}
