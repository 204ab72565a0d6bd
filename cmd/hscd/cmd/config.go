package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/corey/hscd/internal/adapters/socket"
	"github.com/corey/hscd/internal/app"
	"github.com/spf13/cobra"
)

var configInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows project paths, the effective configuration, and daemon status. No daemon required.",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Write the default config.yaml if none exists")
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	paths := app.NewPaths(root)
	sockPath := socket.SocketPath(root)

	if configInit {
		if _, err := os.Stat(paths.Config); err == nil {
			fmt.Printf("⚡ %s already exists\n", paths.Config)
		} else {
			if err := app.DefaultConfig().Save(paths.Config); err != nil {
				return err
			}
			fmt.Printf("⚡ wrote %s\n", paths.Config)
		}
	}

	cfg, err := app.LoadConfig(paths.Config)
	if err != nil {
		return err
	}

	client := socket.NewClient(sockPath)
	daemonRunning := client.Ping()
	daemonStatus := fmt.Sprintf("%s✗ not running%s", colorYellow, colorReset)
	if daemonRunning {
		daemonStatus = fmt.Sprintf("%s✓ running%s", colorGreen, colorReset)
	}

	fmt.Printf("%s⚡ hscd config%s\n", colorBold, colorReset)
	fmt.Printf("  Root:       %s\n", root)
	fmt.Printf("  Config:     %s\n", paths.Config)
	fmt.Printf("  DB:         %s\n", paths.DB)
	fmt.Printf("  Data:       %s\n", paths.DataDir)
	fmt.Printf("  Socket:     %s\n", sockPath)
	fmt.Printf("  Daemon:     %s\n", daemonStatus)
	fmt.Printf("  Dataset:    %s\n", cfg.Dataset)
	fmt.Printf("  Query:      steps=%d max=%d cache=%d workers=%d\n",
		cfg.Query.HintSteps, cfg.Query.MaxResults, cfg.Query.CacheSize, cfg.Query.Workers)
	fmt.Printf("  Graph:      %s local=%t relative=%t range=[%g, %g]\n",
		cfg.Graph.DisplayType, cfg.Graph.UseLocalScale, cfg.Graph.UseRelativeScale,
		cfg.Graph.Range.Min, cfg.Graph.Range.Max)

	if daemonRunning {
		if portData, err := os.ReadFile(paths.PortFile); err == nil {
			fmt.Printf("  Dashboard:  http://localhost:%s\n", strings.TrimSpace(string(portData)))
		}
	}

	return nil
}
