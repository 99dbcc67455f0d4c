package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/beriox/bexp/internal/experiment"
)

func init() {
	rootCmd.AddCommand(newAssignCmd())
}

func newAssignCmd() *cobra.Command {
	var (
		userID    string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "assign <experiment>",
		Short: "Resolve the variant for a subject",
		Long: `Resolve (and pin) the variant a subject sees for an experiment.

With neither --user nor --session, a fresh session id is generated, which
always produces a new assignment.

Examples:
  bexp assign pricing-page --user u-123
  bexp assign pricing-page --session abc-session
  bexp assign pricing-page`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			experimentID := args[0]

			if userID == "" && sessionID == "" {
				sessionID = uuid.NewString()
				fmt.Printf("No identity given; generated session %s\n", sessionID)
			}

			return withEngine(func(e *experiment.Engine) error {
				variant := e.GetVariant(experimentID, userID, sessionID)
				if variant == nil {
					fmt.Println("No experiment applies (unknown, inactive, outside window, or no identity).")
					return nil
				}

				fmt.Printf("Assigned variant: %s (weight %.2f%%)\n", variant.ID, variant.Weight)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id")

	return cmd
}
