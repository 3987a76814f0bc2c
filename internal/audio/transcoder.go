// Package audio turns rendered MIDI files into compressed audio by
// chaining an external synthesizer and a media transcoder.
package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/dygy/scorepipe/internal/errors"
	"github.com/dygy/scorepipe/internal/exec"
)

// Transcoder renders MIDI to a waveform with TiMidity++ and compresses
// it to MP3 with ffmpeg. The intermediate waveform is transient.
type Transcoder struct {
	runner *exec.Runner
	synth  string
	ffmpeg string
}

// NewTranscoder creates a new audio transcoder
func NewTranscoder(runner *exec.Runner, synth, ffmpeg string) *Transcoder {
	if synth == "" {
		synth = "timidity"
	}
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &Transcoder{runner: runner, synth: synth, ffmpeg: ffmpeg}
}

// WavPath derives the intermediate waveform path from a MIDI path
func WavPath(midiPath string) string {
	return strings.TrimSuffix(midiPath, filepath.Ext(midiPath)) + ".wav"
}

// Encode converts a MIDI file to MP3 via an intermediate waveform.
// Both executables are verified before either subprocess is spawned.
// The waveform is removed afterward; absence is ignored.
func (t *Transcoder) Encode(ctx context.Context, midiPath, mp3Path string) error {
	wavPath := WavPath(midiPath)

	if _, err := t.runner.Look(t.synth); err != nil {
		return apperrors.MissingTool("TiMidity++",
			"Please install TiMidity++ (timidity) and ensure it is on your PATH.")
	}
	if _, err := t.runner.Look(t.ffmpeg); err != nil {
		return apperrors.MissingTool("ffmpeg",
			"Please install ffmpeg and ensure it is on your PATH.")
	}

	result, err := t.runner.Run(ctx, t.synth, "-Ow", "-o", wavPath, midiPath)
	if err != nil {
		return fmt.Errorf("synthesize %s: %w (stderr: %s)", midiPath, err, result.Stderr)
	}

	result, err = t.runner.Run(ctx, t.ffmpeg, "-y", "-i", wavPath, mp3Path)
	if err != nil {
		return fmt.Errorf("transcode %s: %w (stderr: %s)", wavPath, err, result.Stderr)
	}

	if err := os.Remove(wavPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove waveform: %w", err)
	}

	return nil
}
