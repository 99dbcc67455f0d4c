package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var tokenFile string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the current admin token",
	Long: `Show the admin token of the running server (for when you've scrolled
past the startup message). Admin endpoints (create, deactivate, export)
accept it as ?token= or via the cookie it sets.

Example:
  bexp token`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFile, "token-file", ".bexp-token", "token file written by the server")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(tokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no server running (token file not found)\nStart the server with: bexp serve")
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return fmt.Errorf("token file is empty; restart the server with: bexp serve")
	}

	fmt.Printf("Admin token: %s\n", token)
	return nil
}
