package app

import (
	"context"
	"os"
	"time"
)

// importTimeout bounds a watcher-triggered import.
const importTimeout = 2 * time.Minute

// onDatasetChanged handles a create/modify/delete event from the watcher.
// Removing a dataset file keeps the records already loaded.
func (a *App) onDatasetChanged(absPath string) {
	if _, err := os.Stat(absPath); err != nil {
		a.logger.Info("dataset file removed, keeping loaded records", "path", absPath)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
	defer cancel()

	if _, err := a.ImportFile(ctx, absPath); err != nil {
		a.logger.Warn("dataset reload failed", "path", absPath, "err", err)
	}
}
