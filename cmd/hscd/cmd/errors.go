package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/corey/hscd/internal/adapters/bbolt"
	"github.com/corey/hscd/internal/adapters/socket"
	"github.com/corey/hscd/internal/app"
	"github.com/spf13/cobra"
)

// lockHolder is who we think holds the project database.
type lockHolder int

const (
	holderDaemon  lockHolder = iota // socket answers
	holderCrashed                   // socket file left behind, nobody answers
	holderUnknown                   // no socket at all
)

// isDBLockError reports whether err comes from a store open that timed out
// on the file lock.
func isDBLockError(err error) bool {
	return errors.Is(err, bbolt.ErrLocked)
}

// diagnoseDBLock inspects the daemon socket and PID file and returns what to
// do next for the command that could not open the database.
func diagnoseDBLock(root, command string) string {
	sockPath := socket.SocketPath(root)
	holder := holderUnknown
	if socket.NewClient(sockPath).Ping() {
		holder = holderDaemon
	} else if _, err := os.Stat(sockPath); err == nil {
		holder = holderCrashed
	}
	return lockAdvice(holder, app.NewPaths(root), sockPath, command)
}

func lockAdvice(holder lockHolder, paths *app.Paths, sockPath, command string) string {
	pid, hasPID := readPID(paths.PIDFile)
	pidText := "<PID>"
	if hasPID {
		pidText = strconv.Itoa(pid)
	}

	var sb strings.Builder
	switch holder {
	case holderDaemon:
		fmt.Fprintf(&sb, "%s is held by the running daemon", paths.DB)
		if hasPID {
			fmt.Fprintf(&sb, " (pid %d)", pid)
		}
		sb.WriteString("\n  → retry and it will go through the daemon:  hscd " + command)
		sb.WriteString("\n  → or stop it first:  hscd daemon stop")
	case holderCrashed:
		fmt.Fprintf(&sb, "%s is locked and the daemon socket does not answer", paths.DB)
		sb.WriteString("\n  → a previous daemon may have crashed")
		fmt.Fprintf(&sb, "\n  → kill it:           kill %s", pidText)
		fmt.Fprintf(&sb, "\n  → clean up socket:   rm %s", sockPath)
	default:
		fmt.Fprintf(&sb, "%s is locked by another process", paths.DB)
		fmt.Fprintf(&sb, "\n  → find it:           fuser %s", paths.DB)
	}

	if holder != holderDaemon {
		if strings.HasPrefix(command, "import ") {
			fmt.Fprintf(&sb, "\n  → the file is already copied to %s", paths.DataDir)
		}
		sb.WriteString("\n  → then retry:        hscd " + command)
	}
	return sb.String()
}

// commandLine rebuilds the invocation for retry hints, without the binary
// name and flags.
func commandLine(cmd *cobra.Command, args []string) string {
	parts := []string{strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()+" ")}
	for _, a := range args {
		if strings.ContainsAny(a, " \t") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// readPID returns the daemon PID recorded in path, if any.
func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
