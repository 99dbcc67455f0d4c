package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "bexp",
	Short: "bexp - sticky A/B experiment assignment and significance engine",
	Long: `bexp manages A/B experiments: weighted sticky variant assignment,
append-only event recording, and two-proportion z-test significance analysis.
Single Go binary, optional embedded SQLite for durability.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("BEXP_DB_PATH", ""), "database path (empty keeps state in memory)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
