package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage saved weight presets",
	RunE:  runPresetsList,
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets",
	RunE:  runPresetsList,
}

var presetsLearnCmd = &cobra.Command{
	Use:   "learn <name> feature=weight ...",
	Short: "Save weights under a name",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPresetsLearn,
}

var presetsForgetCmd = &cobra.Command{
	Use:   "forget <name>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsForget,
}

func init() {
	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsLearnCmd)
	presetsCmd.AddCommand(presetsForgetCmd)
}

func runPresetsList(cmd *cobra.Command, args []string) error {
	b, err := openBackend(projectRoot(), commandLine(cmd, args))
	if err != nil {
		return err
	}
	defer b.Close()

	presets, err := b.Presets()
	if err != nil {
		return err
	}
	fmt.Print(formatPresets(presets))
	return nil
}

func runPresetsLearn(cmd *cobra.Command, args []string) error {
	features, err := parseVector(args[1:])
	if err != nil {
		return err
	}

	b, err := openBackend(projectRoot(), commandLine(cmd, args))
	if err != nil {
		return err
	}
	defer b.Close()

	p, err := b.Learn(args[0], features)
	if err != nil {
		return err
	}
	fmt.Printf("⚡ learned %s%s%s %s\n", colorMagenta, p.Name, colorReset, formatVector(p.Features))
	return nil
}

func runPresetsForget(cmd *cobra.Command, args []string) error {
	b, err := openBackend(projectRoot(), commandLine(cmd, args))
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Forget(args[0]); err != nil {
		return err
	}
	fmt.Printf("⚡ forgot %s\n", args[0])
	return nil
}
