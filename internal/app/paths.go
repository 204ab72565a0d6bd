package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .hscd/ project directory.
// All fields are pre-computed strings: zero-alloc access after construction.
type Paths struct {
	Root   string // .hscd/
	DB     string // .hscd/hscd.db
	Config string // .hscd/config.yaml

	DataDir string // .hscd/data/ (watched for dataset files)

	LogDir    string // .hscd/log/
	DaemonLog string // .hscd/log/daemon.log

	RunDir   string // .hscd/run/
	PIDFile  string // .hscd/run/daemon.pid
	PortFile string // .hscd/run/http.port
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".hscd")
	return &Paths{
		Root:   root,
		DB:     filepath.Join(root, "hscd.db"),
		Config: filepath.Join(root, "config.yaml"),

		DataDir: filepath.Join(root, "data"),

		LogDir:    filepath.Join(root, "log"),
		DaemonLog: filepath.Join(root, "log", "daemon.log"),

		RunDir:   filepath.Join(root, "run"),
		PIDFile:  filepath.Join(root, "run", "daemon.pid"),
		PortFile: filepath.Join(root, "run", "http.port"),
	}
}

// EnsureDirs creates all subdirectories under .hscd/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.DataDir, p.LogDir, p.RunDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// CleanEphemeral removes ephemeral runtime files (PID file and port file).
// Called on clean daemon shutdown.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.PIDFile)
	os.Remove(p.PortFile)
}
