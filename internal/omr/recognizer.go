// Package omr invokes the external optical-music-recognition engine and
// locates the notation file it produces.
package omr

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/dygy/scorepipe/internal/errors"
	"github.com/dygy/scorepipe/internal/exec"
	"github.com/dygy/scorepipe/internal/sheet"
)

const installHint = "Please install Audiveris and ensure it is on your PATH."

// Recognizer runs Audiveris in batch mode against a single input file
type Recognizer struct {
	runner *exec.Runner
	tool   string
}

// NewRecognizer creates a new recognizer
func NewRecognizer(runner *exec.Runner, tool string) *Recognizer {
	if tool == "" {
		tool = "audiveris"
	}
	return &Recognizer{runner: runner, tool: tool}
}

// Recognize runs the OMR engine on inputPath, exporting into outputDir,
// and returns the path of the notation file it produced. The output
// directory tree is created if absent.
func (r *Recognizer) Recognize(ctx context.Context, inputPath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	if _, err := r.runner.Look(r.tool); err != nil {
		return "", apperrors.MissingTool("Audiveris", installHint)
	}

	result, err := r.runner.Run(ctx, r.tool, "-batch", inputPath, "-export", "-output", outputDir)
	if err != nil {
		return "", apperrors.NewGuidedError("audiveris",
			fmt.Sprintf("Audiveris failed on %s:\n%s", inputPath, result.Stderr),
			apperrors.NewProcessError("audiveris", "recognition", result.ExitCode, result.Stderr, err))
	}

	return FindNotation(outputDir, inputPath)
}

// FindNotation searches outputDir recursively for a notation file named
// <stem>*.xml, then <stem>*.mxl, where stem is the input's base name
// without extension. Ties are broken by lexicographically smallest path
// so the selection does not depend on traversal order.
func FindNotation(outputDir, inputPath string) (string, error) {
	stem := sheet.Stem(inputPath)
	for _, ext := range []string{".xml", ".mxl"} {
		var matches []string
		err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, stem) && strings.EqualFold(filepath.Ext(name), ext) {
				matches = append(matches, path)
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("search %s: %w", outputDir, err)
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return matches[0], nil
		}
	}

	return "", &apperrors.ArtifactError{Input: inputPath, OutputDir: outputDir}
}
