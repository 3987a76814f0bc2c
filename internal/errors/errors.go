package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	ErrFileNotFound      = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrToolNotInstalled  = errors.New("required tool not installed")
)

// GuidedError is a failure with a known remediation. The top-level
// handler prints Guidance to stderr instead of the raw error chain.
type GuidedError struct {
	Tool     string // "audiveris", "musescore", "timidity", "ffmpeg"
	Guidance string // human-readable remediation message
	Cause    error
}

func (e *GuidedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Tool, e.Cause)
	}
	return e.Guidance
}

func (e *GuidedError) Unwrap() error {
	return e.Cause
}

// NewGuidedError creates a GuidedError
func NewGuidedError(tool, guidance string, cause error) *GuidedError {
	return &GuidedError{Tool: tool, Guidance: guidance, Cause: cause}
}

// MissingTool creates a GuidedError for an executable absent from PATH
func MissingTool(tool, install string) *GuidedError {
	return &GuidedError{
		Tool:     tool,
		Guidance: fmt.Sprintf("%s executable not found. %s", tool, install),
		Cause:    ErrToolNotInstalled,
	}
}

// ProcessError represents a failure in an external process
type ProcessError struct {
	Tool     string // "audiveris", "musescore", "timidity", "ffmpeg"
	Stage    string // "recognition", "pdf_render", "midi_render", "transcode"
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed at %s (exit %d): %s", e.Tool, e.Stage, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s failed at %s (exit %d)", e.Tool, e.Stage, e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// NewProcessError creates a ProcessError
func NewProcessError(tool, stage string, exitCode int, stderr string, cause error) *ProcessError {
	return &ProcessError{
		Tool:     tool,
		Stage:    stage,
		ExitCode: exitCode,
		Stderr:   stderr,
		Cause:    cause,
	}
}

// ArtifactError reports that recognition exited cleanly but produced no
// notation file for the input. Distinct from ProcessError so callers can
// tell "tool failed" from "tool succeeded but wrote nothing we can use".
type ArtifactError struct {
	Input     string
	OutputDir string
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("audiveris did not produce a MusicXML file for %s in %s", e.Input, e.OutputDir)
}
