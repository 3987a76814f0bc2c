package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Workspace manages temporary files for a single server job
type Workspace struct {
	Dir       string
	CreatedAt time.Time
}

// Create creates a new isolated workspace in the system temp directory
func Create() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "scorepipe-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	return &Workspace{
		Dir:       dir,
		CreatedAt: time.Now(),
	}, nil
}

// InputPath returns the workspace path for an uploaded input file
func (w *Workspace) InputPath(ext string) string {
	return filepath.Join(w.Dir, "input"+ext)
}

// OutputDir returns the workspace artifact directory
func (w *Workspace) OutputDir() string {
	return filepath.Join(w.Dir, "out")
}

// Cleanup removes the workspace directory and all contents
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.Dir)
}
