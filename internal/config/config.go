// Package config loads scorepipe settings from a TOML file. Every field
// has a default, so a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all scorepipe settings
type Config struct {
	Tools    Tools    `toml:"tools"`
	Output   Output   `toml:"output"`
	Timeouts Timeouts `toml:"timeouts"`
	Tag      Tag      `toml:"tag"`
}

// Tools holds executable name overrides for the external collaborators
type Tools struct {
	Audiveris string   `toml:"audiveris"`
	MuseScore []string `toml:"musescore"`
	Timidity  string   `toml:"timidity"`
	FFmpeg    string   `toml:"ffmpeg"`
}

// Output holds artifact destination settings
type Output struct {
	Dir string `toml:"dir"`
}

// Timeouts holds per-stage subprocess timeouts in seconds; zero disables
type Timeouts struct {
	RecognizeSec int `toml:"recognize_sec"`
	RenderSec    int `toml:"render_sec"`
	TranscodeSec int `toml:"transcode_sec"`
}

// Tag holds optional ID3 metadata applied to generated MP3s
type Tag struct {
	Album    string `toml:"album"`
	Artist   string `toml:"artist"`
	Composer string `toml:"composer"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Tools: Tools{
			Audiveris: "audiveris",
			MuseScore: []string{"mscore", "musescore"},
			Timidity:  "timidity",
			FFmpeg:    "ffmpeg",
		},
		Output: Output{Dir: "output"},
		Timeouts: Timeouts{
			RecognizeSec: 0,
			RenderSec:    0,
			TranscodeSec: 0,
		},
	}
}

// DefaultPath returns the conventional config file location
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "scorepipe.toml"
	}
	return filepath.Join(home, ".config", "scorepipe", "config.toml")
}

// Load reads the config at path, falling back to defaults for a missing
// file. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ToolOverrides maps canonical tool names to configured executables for
// the subprocess runner. MuseScore is resolved separately since it has
// two candidate names.
func (c *Config) ToolOverrides() map[string]string {
	return map[string]string{
		"audiveris": c.Tools.Audiveris,
		"timidity":  c.Tools.Timidity,
		"ffmpeg":    c.Tools.FFmpeg,
	}
}

// RecognizeTimeout returns the OMR stage timeout, zero meaning none
func (c *Config) RecognizeTimeout() time.Duration {
	return time.Duration(c.Timeouts.RecognizeSec) * time.Second
}

// RenderTimeout returns the render stage timeout, zero meaning none
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Timeouts.RenderSec) * time.Second
}

// TranscodeTimeout returns the transcode stage timeout, zero meaning none
func (c *Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.Timeouts.TranscodeSec) * time.Second
}
