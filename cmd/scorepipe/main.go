package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dygy/scorepipe/internal/config"
	apperrors "github.com/dygy/scorepipe/internal/errors"
	"github.com/dygy/scorepipe/internal/exec"
	"github.com/dygy/scorepipe/internal/pipeline"
	"github.com/dygy/scorepipe/internal/server"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Single exit point: guided failures get their remediation text,
		// everything else the raw diagnostic. Both exit 1.
		var guided *apperrors.GuidedError
		if errors.As(err, &guided) {
			fmt.Fprintln(os.Stderr, guided.Guidance)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scorepipe",
	Short: "Convert scanned sheet music to MusicXML, PDF, MIDI, and MP3",
	Long: `scorepipe runs optical music recognition on scanned sheet music and
renders the result to notation and audio formats.

Pipeline: scan → OMR (Audiveris) → MusicXML → PDF/MIDI (MuseScore) → MP3`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Convert a sheet image/PDF or a directory of them",
	Long: `Convert a scanned sheet (or every supported file in a directory)
into MusicXML, PDF, MIDI, and MP3 artifacts.

Examples:
  scorepipe convert sonata.pdf
  scorepipe convert scans/ -o rendered --review`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Long: `Start the web interface for uploading scanned sheets.

Example:
  scorepipe serve --port 8080`,
	RunE: runServe,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Check which external tools are installed",
	RunE:  runTools,
}

var (
	// convert flags
	outputDir  string
	review     bool
	noCache    bool
	verbose    bool
	configPath string

	// serve flags
	port int
)

func init() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(toolsCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/scorepipe/config.toml)")

	convertCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for generated files (default: output)")
	convertCmd.Flags().BoolVar(&review, "review", false, "Open each recognized score for interactive review")
	convertCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the recognition cache (force fresh OMR)")
	convertCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
		cancel()
	}()

	orch := pipeline.NewOrchestrator(cfg, os.Stdout, verbose)

	pcfg := pipeline.DefaultConfig()
	pcfg.InputPath = args[0]
	pcfg.OutputDir = cfg.Output.Dir
	if outputDir != "" {
		pcfg.OutputDir = outputDir
	}
	pcfg.Review = review
	pcfg.UseCache = !noCache
	pcfg.RecognizeTimeout = cfg.RecognizeTimeout()
	pcfg.RenderTimeout = cfg.RenderTimeout()
	pcfg.TranscodeTimeout = cfg.TranscodeTimeout()

	_, err = orch.Run(ctx, pcfg)
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{Port: port, AppCfg: cfg})
	if err != nil {
		return err
	}
	return srv.Run()
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	runner := exec.NewRunner(cfg.ToolOverrides())

	check := func(label string, names ...string) {
		path, err := runner.LookAny(names...)
		if err != nil {
			fmt.Printf("  %-12s missing\n", label)
			return
		}
		fmt.Printf("  %-12s %s\n", label, path)
	}

	fmt.Println("External tools:")
	check("audiveris", "audiveris")
	check("musescore", cfg.Tools.MuseScore...)
	check("timidity", "timidity")
	check("ffmpeg", "ffmpeg")
	check("pdf viewer", "xdg-open", "open")

	return nil
}
