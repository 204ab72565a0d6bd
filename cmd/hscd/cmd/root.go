package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "hscd",
	Short:         "hscd: weighted-feature search engine",
	Long:          "Rank records by a vector of feature weights and see how many would match as each weight moves.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// projectRoot returns the project root (cwd by default).
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
}
