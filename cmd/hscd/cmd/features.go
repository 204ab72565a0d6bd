package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the dataset's features",
	RunE:  runFeatures,
}

func runFeatures(cmd *cobra.Command, args []string) error {
	b, err := openBackend(projectRoot(), commandLine(cmd, args))
	if err != nil {
		return err
	}
	defer b.Close()

	features, err := b.Features()
	if err != nil {
		return err
	}
	if len(features) == 0 {
		fmt.Println("⚡ no dataset imported, run: hscd import <file>")
		return nil
	}
	fmt.Print(formatFeatures(features))
	return nil
}
