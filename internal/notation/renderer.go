// Package notation renders recognized notation files to PDF and MIDI by
// shelling out to MuseScore.
package notation

import (
	"context"
	"fmt"

	apperrors "github.com/dygy/scorepipe/internal/errors"
	"github.com/dygy/scorepipe/internal/exec"
)

const installHint = "Please install MuseScore and ensure it is on your PATH."

// Renderer exports notation files via MuseScore. The executable ships
// under two names depending on platform and version.
type Renderer struct {
	runner *exec.Runner
	tools  []string
}

// NewRenderer creates a new notation renderer
func NewRenderer(runner *exec.Runner, tools []string) *Renderer {
	if len(tools) == 0 {
		tools = []string{"mscore", "musescore"}
	}
	return &Renderer{runner: runner, tools: tools}
}

// ExportPDF renders the notation file to a PDF. The rendering engine is
// verified to be present before the notation file is touched.
func (r *Renderer) ExportPDF(ctx context.Context, notationPath, pdfPath string) error {
	tool, err := r.runner.LookAny(r.tools...)
	if err != nil {
		return apperrors.MissingTool("MuseScore", installHint)
	}

	result, err := r.runner.Run(ctx, tool, "-o", pdfPath, notationPath)
	if err != nil {
		return apperrors.NewGuidedError("musescore",
			"Failed to render PDF with MuseScore. "+installHint,
			apperrors.NewProcessError("musescore", "pdf_render", result.ExitCode, result.Stderr, err))
	}
	return nil
}

// ExportMIDI renders the notation file to a MIDI file. Unlike the PDF
// path there is no precondition check; failures propagate to the caller.
func (r *Renderer) ExportMIDI(ctx context.Context, notationPath, midiPath string) error {
	tool, err := r.runner.LookAny(r.tools...)
	if err != nil {
		tool = r.tools[0]
	}

	result, err := r.runner.Run(ctx, tool, "-o", midiPath, notationPath)
	if err != nil {
		return fmt.Errorf("midi export of %s: %w (stderr: %s)", notationPath, err, result.Stderr)
	}
	return nil
}
