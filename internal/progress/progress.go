package progress

import (
	"fmt"
	"io"
	"time"
)

// Stage represents a processing stage
type Stage struct {
	Number      int
	Total       int
	Name        string
	Description string
}

// Predefined stages for one input file
var (
	StageRecognize = Stage{1, 4, "recognize", "Recognizing notation (this may take a while)..."}
	StagePDF       = Stage{2, 4, "pdf", "Rendering PDF..."}
	StageMIDI      = Stage{3, 4, "midi", "Rendering MIDI..."}
	StageMP3       = Stage{4, 4, "mp3", "Transcoding to MP3..."}
)

// Reporter handles CLI progress output
type Reporter struct {
	out       io.Writer
	startTime time.Time
	verbose   bool
}

// NewReporter creates a new progress reporter
func NewReporter(out io.Writer, verbose bool) *Reporter {
	return &Reporter{
		out:       out,
		startTime: time.Now(),
		verbose:   verbose,
	}
}

// File announces the input file being processed
func (r *Reporter) File(path string) {
	fmt.Fprintf(r.out, "Processing %s\n", path)
}

// StartStage announces the beginning of a processing stage
func (r *Reporter) StartStage(stage Stage) {
	fmt.Fprintf(r.out, "[%d/%d] %s\n", stage.Number, stage.Total, stage.Description)
}

// Update shows a sub-progress message within a stage
func (r *Reporter) Update(format string, args ...any) {
	if r.verbose {
		fmt.Fprintf(r.out, "       %s\n", fmt.Sprintf(format, args...))
	}
}

// Artifact announces a generated artifact path
func (r *Reporter) Artifact(path string) {
	fmt.Fprintf(r.out, "Generated %s\n", path)
}

// Done announces successful completion of the batch
func (r *Reporter) Done(files int) {
	elapsed := time.Since(r.startTime)
	fmt.Fprintf(r.out, "Done! Processed %d file(s) in %.1f seconds\n", files, elapsed.Seconds())
}

// Warning announces a non-fatal warning
func (r *Reporter) Warning(format string, args ...any) {
	fmt.Fprintf(r.out, "Warning: %s\n", fmt.Sprintf(format, args...))
}
