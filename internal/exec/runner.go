package exec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Result holds command execution output
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes external tools with context support. Output is always
// captured, never streamed to the console.
type Runner struct {
	// Overrides maps a tool name to an explicit executable path,
	// bypassing PATH lookup. Populated from the config file.
	Overrides map[string]string
}

// NewRunner creates a new command runner
func NewRunner(overrides map[string]string) *Runner {
	if overrides == nil {
		overrides = make(map[string]string)
	}
	return &Runner{Overrides: overrides}
}

// Look resolves a tool name to an executable path. Config overrides win;
// otherwise the search path is consulted.
func (r *Runner) Look(tool string) (string, error) {
	name := tool
	if path, ok := r.Overrides[tool]; ok && path != "" {
		name = path
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("look up %s: %w", tool, err)
	}
	return path, nil
}

// LookAny resolves the first tool name that is present on the search path.
func (r *Runner) LookAny(tools ...string) (string, error) {
	for _, tool := range tools {
		if path, err := r.Look(tool); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("none of %v found on PATH", tools)
}

// Run executes a tool and captures its output
func (r *Runner) Run(ctx context.Context, tool string, args ...string) (*Result, error) {
	name := tool
	if path, ok := r.Overrides[tool]; ok && path != "" {
		name = path
	}

	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
	}

	if err != nil {
		return result, fmt.Errorf("%s: %w", tool, err)
	}

	return result, nil
}
