package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studioloop/backend/internal/services"
)

var (
	// weightsFile overrides WEIGHTS_FILE for a single invocation.
	weightsFile string
	jsonOutput  bool
)

var rootCmd = &cobra.Command{
	Use:   "matchctl",
	Short: "Inspect freelancer ranking and the scoring weight table.",
	Long: `matchctl runs the assignment engine's scoring against the live freelancer
pool without creating a task, and prints the effective weight table.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&weightsFile, "weights", "w", "", "YAML weight table (default: $WEIGHTS_FILE or built-in)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(rankCmd, weightsCmd)
}

// loadTable resolves the weight table from the flag, then the environment.
func loadTable(fromEnv string) (services.WeightTable, error) {
	path := weightsFile
	if path == "" {
		path = fromEnv
	}
	if path == "" {
		return services.DefaultWeightTable(), nil
	}
	return services.LoadWeightTable(path)
}
