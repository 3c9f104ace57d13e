// Package config defines the YAML configuration for syncframe.
package config

import (
	"log/slog"
	"time"

	"github.com/olivier-w/syncframe/internal/pcm"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l to a slog level. Unknown values map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// OutputFormat selects how reports are written.
type OutputFormat string

const (
	OutputYAML OutputFormat = "yaml"
	OutputJSON OutputFormat = "json"
	OutputText OutputFormat = "text"
)

// IsValid reports whether f is a recognised output format.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputYAML, OutputJSON, OutputText:
		return true
	}
	return false
}

// Config is the root configuration.
type Config struct {
	LogLevel LogLevel       `yaml:"log_level"`
	Tone     ToneConfig     `yaml:"tone"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Decode   DecodeConfig   `yaml:"decode"`
	Raw      RawConfig      `yaml:"raw"`
	Output   OutputConfig   `yaml:"output"`
	Store    StoreConfig    `yaml:"store"`
}

// ToneConfig describes the sync tone being searched for.
type ToneConfig struct {
	// FrequencyHz is the tone frequency.
	FrequencyHz float64 `yaml:"frequency_hz"`

	// Duration is the expected burst length.
	Duration time.Duration `yaml:"duration"`
}

// AnalysisConfig tunes the analysis pipeline.
type AnalysisConfig struct {
	// SmoothWindow is the width of the forward averaging window, in frames.
	SmoothWindow int `yaml:"smooth_window"`

	// FrameRate overrides the probed video frame rate when positive.
	// Audio-only inputs require it.
	FrameRate float64 `yaml:"frame_rate"`
}

// DecodeConfig controls ffmpeg decoding of container sources.
type DecodeConfig struct {
	SampleFormat string `yaml:"sample_format"`
	SampleRate   int    `yaml:"sample_rate"`
}

// RawConfig is the layout of headerless .pcm and .raw inputs.
type RawConfig struct {
	SampleRate    int  `yaml:"sample_rate"`
	Channels      int  `yaml:"channels"`
	BitsPerSample int  `yaml:"bits_per_sample"`
	BigEndian     bool `yaml:"big_endian"`
}

// Format converts r to a PCM format.
func (r RawConfig) Format() pcm.Format {
	return pcm.Format{
		SampleRate:    float64(r.SampleRate),
		Channels:      r.Channels,
		BitsPerSample: r.BitsPerSample,
		BigEndian:     r.BigEndian,
	}
}

// OutputConfig controls where reports go.
type OutputConfig struct {
	Format OutputFormat `yaml:"format"`

	// Path is the report file. Empty writes to stdout.
	Path string `yaml:"path"`
}

// StoreConfig locates the analysis history database.
type StoreConfig struct {
	// Path is the SQLite file. Empty disables history.
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Tone: ToneConfig{
			FrequencyHz: 1000,
			Duration:    time.Second,
		},
		Analysis: AnalysisConfig{SmoothWindow: 5},
		Decode:   DecodeConfig{SampleFormat: "s16le"},
		Raw: RawConfig{
			SampleRate:    48000,
			Channels:      1,
			BitsPerSample: 16,
		},
		Output: OutputConfig{Format: OutputYAML},
	}
}
