// Package pipeline drives the per-file conversion sequence: recognize,
// render PDF, render MIDI, transcode to MP3.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dygy/scorepipe/internal/audio"
	"github.com/dygy/scorepipe/internal/cache"
	"github.com/dygy/scorepipe/internal/config"
	"github.com/dygy/scorepipe/internal/exec"
	"github.com/dygy/scorepipe/internal/notation"
	"github.com/dygy/scorepipe/internal/omr"
	"github.com/dygy/scorepipe/internal/progress"
	"github.com/dygy/scorepipe/internal/sheet"
)

// Recognizer runs OMR on one input and returns the notation artifact path
type Recognizer interface {
	Recognize(ctx context.Context, inputPath, outputDir string) (string, error)
}

// Exporter renders a notation file to derived formats
type Exporter interface {
	ExportPDF(ctx context.Context, notationPath, pdfPath string) error
	ExportMIDI(ctx context.Context, notationPath, midiPath string) error
}

// Encoder converts a MIDI file to compressed audio
type Encoder interface {
	Encode(ctx context.Context, midiPath, mp3Path string) error
}

// Viewer opens an artifact for interactive review
type Viewer interface {
	Review(ctx context.Context, notationPath, pdfPath string) error
}

// Tagger writes metadata to a generated MP3
type Tagger interface {
	Tag(path string, meta audio.TagMeta) error
}

// Config holds pipeline configuration
type Config struct {
	InputPath        string
	OutputDir        string
	Review           bool // open each notation artifact after processing
	UseCache         bool // reuse cached recognition results
	RecognizeTimeout time.Duration
	RenderTimeout    time.Duration
	TranscodeTimeout time.Duration
}

// DefaultConfig returns default pipeline configuration
func DefaultConfig() Config {
	return Config{
		OutputDir: "output",
		UseCache:  true,
	}
}

// Artifacts lists the files generated for one input
type Artifacts struct {
	Input    string
	Notation string
	PDF      string
	MIDI     string
	MP3      string
}

// Orchestrator coordinates the full conversion pipeline
type Orchestrator struct {
	recognizer Recognizer
	exporter   Exporter
	encoder    Encoder
	viewer     Viewer
	tagger     Tagger
	tagMeta    audio.TagMeta
	cacheDir   string
	progress   *progress.Reporter
}

// NewOrchestrator creates an orchestrator wired to the real external tools
func NewOrchestrator(cfg *config.Config, out io.Writer, verbose bool) *Orchestrator {
	runner := exec.NewRunner(cfg.ToolOverrides())
	return &Orchestrator{
		recognizer: omr.NewRecognizer(runner, "audiveris"),
		exporter:   notation.NewRenderer(runner, cfg.Tools.MuseScore),
		encoder:    audio.NewTranscoder(runner, "timidity", "ffmpeg"),
		viewer:     notation.NewViewer(runner, cfg.Tools.MuseScore),
		tagger:     audio.NewTagger(),
		tagMeta: audio.TagMeta{
			Album:    cfg.Tag.Album,
			Artist:   cfg.Tag.Artist,
			Composer: cfg.Tag.Composer,
		},
		progress: progress.NewReporter(out, verbose),
	}
}

// Run resolves the configured input path and processes every file in
// order. Processing is strictly sequential; the first failure aborts the
// remainder of the batch.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) ([]Artifacts, error) {
	inputs, err := sheet.Resolve(cfg.InputPath)
	if err != nil {
		return nil, err
	}

	var all []Artifacts
	for _, input := range inputs {
		arts, err := o.processFile(ctx, input, cfg)
		if err != nil {
			return nil, err
		}
		all = append(all, *arts)
	}

	o.progress.Done(len(all))
	return all, nil
}

// processFile runs the four conversion stages for one input file
func (o *Orchestrator) processFile(ctx context.Context, input string, cfg Config) (*Artifacts, error) {
	o.progress.File(input)

	if format, err := sheet.DetectFormat(input); err == nil && format == sheet.FormatUnknown {
		o.progress.Warning("%s does not look like a PDF or image file", input)
	}

	// Stage 1: Recognition
	o.progress.StartStage(progress.StageRecognize)
	notationPath, err := o.recognize(ctx, input, cfg)
	if err != nil {
		return nil, err
	}
	o.progress.Update("notation artifact: %s", notationPath)

	// Derived artifact names follow the notation artifact's stem, written
	// flat into the output directory. Inputs sharing a stem overwrite each
	// other here; the output directory is a shared sink.
	stem := sheet.Stem(notationPath)
	arts := &Artifacts{
		Input:    input,
		Notation: notationPath,
		PDF:      filepath.Join(cfg.OutputDir, stem+".pdf"),
		MIDI:     filepath.Join(cfg.OutputDir, stem+".mid"),
		MP3:      filepath.Join(cfg.OutputDir, stem+".mp3"),
	}

	// Stage 2: PDF render
	o.progress.StartStage(progress.StagePDF)
	renderCtx, renderCancel := withOptionalTimeout(ctx, cfg.RenderTimeout)
	defer renderCancel()
	if err := o.exporter.ExportPDF(renderCtx, notationPath, arts.PDF); err != nil {
		return nil, err
	}

	// Stage 3: MIDI render
	o.progress.StartStage(progress.StageMIDI)
	if err := o.exporter.ExportMIDI(renderCtx, notationPath, arts.MIDI); err != nil {
		return nil, err
	}

	// Stage 4: MP3 transcode
	o.progress.StartStage(progress.StageMP3)
	encodeCtx, encodeCancel := withOptionalTimeout(ctx, cfg.TranscodeTimeout)
	defer encodeCancel()
	if err := o.encoder.Encode(encodeCtx, arts.MIDI, arts.MP3); err != nil {
		return nil, err
	}

	meta := o.tagMeta
	meta.Title = stem
	if err := o.tagger.Tag(arts.MP3, meta); err != nil {
		o.progress.Warning("could not tag %s: %v", arts.MP3, err)
	}

	o.progress.Artifact(arts.Notation)
	o.progress.Artifact(arts.PDF)
	o.progress.Artifact(arts.MIDI)
	o.progress.Artifact(arts.MP3)

	if cfg.Review && o.viewer != nil {
		if err := o.viewer.Review(ctx, arts.Notation, arts.PDF); err != nil {
			o.progress.Update("review skipped: %v", err)
		}
	}

	return arts, nil
}

// recognize runs the OMR stage, consulting the notation cache first
func (o *Orchestrator) recognize(ctx context.Context, input string, cfg Config) (string, error) {
	var (
		nc  *cache.NotationCache
		key string
	)

	if cfg.UseCache {
		var err error
		nc, err = cache.New(o.cacheDir)
		if err != nil {
			o.progress.Warning("cache init failed: %v", err)
		} else {
			key, err = cache.KeyForFile(input)
			if err != nil {
				o.progress.Warning("cache key failed: %v", err)
				key = ""
			}
		}

		if nc != nil && key != "" {
			if cached, ok := nc.Get(key); ok {
				o.progress.Update("using cached recognition (key: %s)", key[:8])
				return o.restoreCached(cached, cfg.OutputDir)
			}
		}
	}

	recognizeCtx, cancel := withOptionalTimeout(ctx, cfg.RecognizeTimeout)
	defer cancel()

	notationPath, err := o.recognizer.Recognize(recognizeCtx, input, cfg.OutputDir)
	if err != nil {
		return "", err
	}

	if nc != nil && key != "" {
		if err := nc.Put(key, input, notationPath); err != nil {
			o.progress.Warning("cache save failed: %v", err)
		}
	}

	return notationPath, nil
}

// restoreCached copies a cached notation file into the output directory
// so the artifact layout matches an uncached run.
func (o *Orchestrator) restoreCached(cachedPath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	dst := filepath.Join(outputDir, filepath.Base(cachedPath))
	data, err := os.ReadFile(cachedPath)
	if err != nil {
		return "", fmt.Errorf("read cached notation: %w", err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", fmt.Errorf("restore cached notation: %w", err)
	}
	return dst, nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
