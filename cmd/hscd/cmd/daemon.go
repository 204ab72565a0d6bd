package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/corey/hscd/internal/adapters/socket"
	"github.com/corey/hscd/internal/app"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the hscd daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	sockPath := socket.SocketPath(root)

	// Check if already running
	client := socket.NewClient(sockPath)
	if client.Ping() {
		fmt.Println("⚡ daemon already running")
		return nil
	}

	paths := app.NewPaths(root)
	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	cfg, err := app.LoadConfig(paths.Config)
	if err != nil {
		return err
	}

	logger, logFile, err := app.NewFileLogger(paths.DaemonLog, app.LevelFromString(cfg.LogLevel))
	if err != nil {
		fmt.Printf("[warning] daemon log unavailable: %v\n", err)
		logger = app.NewDiscardLogger()
	} else {
		defer logFile.Close()
	}

	a, err := app.New(app.Options{ProjectRoot: root, Config: cfg, Logger: logger})
	if err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("cannot start: %s", diagnoseDBLock(root, "daemon start"))
		}
		return fmt.Errorf("init: %w", err)
	}

	if err := a.Start(); err != nil {
		a.Stop()
		return err
	}

	fmt.Printf("⚡ hscd daemon started at %s\n", sockPath)
	fmt.Printf("  Dataset:    %s (%d records)\n", cfg.Dataset, a.Records.Len())
	if a.WebServer.Port() != 0 {
		fmt.Printf("  Dashboard:  %s\n", a.WebServer.URL())
	}

	// Wait for a signal or a socket shutdown request
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-a.Server.ShutdownCh():
	}

	fmt.Println("\n⚡ shutting down...")
	return a.Stop()
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	client := socket.NewClient(socket.SocketPath(root))

	if !client.Ping() {
		fmt.Println("⚡ daemon is not running")
		return nil
	}

	if err := client.Shutdown(); err != nil {
		return err
	}

	fmt.Println("⚡ daemon stopped")
	return nil
}
