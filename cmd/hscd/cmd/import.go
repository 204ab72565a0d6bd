package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	fsw "github.com/corey/hscd/internal/adapters/fsnotify"
	"github.com/corey/hscd/internal/adapters/socket"
	"github.com/corey/hscd/internal/app"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a dataset (.json, .yaml, .sqlite)",
	Long: "Copies the file into .hscd/data/ and loads it. A running daemon reloads\n" +
		"immediately; otherwise the records are written to the project database.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	src := args[0]
	if !fsw.IsDatasetFile(src) {
		return fmt.Errorf("%s: expected a .json, .yaml, .yml, .sqlite or .db file", src)
	}

	paths := app.NewPaths(root)
	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	dst := filepath.Join(paths.DataDir, filepath.Base(src))
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("copy dataset: %w", err)
	}

	var result socket.ReloadResult
	client := socket.NewClient(socket.SocketPath(root))
	if client.Ping() {
		r, err := client.Reload()
		if err != nil {
			return fmt.Errorf("reload via daemon failed: %w", err)
		}
		result = *r
	} else {
		a, err := openLocalApp(root, commandLine(cmd, args))
		if err != nil {
			return err
		}
		defer a.Store.Close()
		if result, err = a.ImportFile(context.Background(), dst); err != nil {
			return err
		}
	}

	fmt.Printf("⚡ imported %d records, %d features │ %s\n", result.Records, result.Features, result.Elapsed)
	return nil
}

func copyFile(src, dst string) error {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	if srcAbs == dstAbs {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// Write beside the target and rename, so the watcher never sees a
	// half-written dataset.
	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
