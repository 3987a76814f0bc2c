package notation

import (
	"context"
	"runtime"

	"github.com/dygy/scorepipe/internal/exec"
)

// Viewer opens artifacts for interactive review
type Viewer struct {
	runner *exec.Runner
	tools  []string
}

// NewViewer creates a new viewer
func NewViewer(runner *exec.Runner, tools []string) *Viewer {
	if len(tools) == 0 {
		tools = []string{"mscore", "musescore"}
	}
	return &Viewer{runner: runner, tools: tools}
}

// Review opens the notation file in MuseScore. If that fails it falls
// back to opening the rendered PDF with the platform opener; if neither
// works the review is skipped and the error reported for logging only.
func (v *Viewer) Review(ctx context.Context, notationPath, pdfPath string) error {
	if tool, err := v.runner.LookAny(v.tools...); err == nil {
		if _, err := v.runner.Run(ctx, tool, notationPath); err == nil {
			return nil
		}
	}

	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	if _, err := v.runner.Look(opener); err != nil {
		return err
	}
	_, err := v.runner.Run(ctx, opener, pdfPath)
	return err
}
