package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/olivier-w/syncframe/internal/analysis"
	"github.com/olivier-w/syncframe/internal/source"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// Keys missing from the file keep their [Default] values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults and validates
// the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Tone.FrequencyHz <= 0 {
		errs = append(errs, fmt.Errorf("tone.frequency_hz %v must be positive", cfg.Tone.FrequencyHz))
	}
	if cfg.Tone.Duration <= 0 {
		errs = append(errs, fmt.Errorf("tone.duration %v must be positive", cfg.Tone.Duration))
	}

	if cfg.Analysis.SmoothWindow < 1 {
		errs = append(errs, fmt.Errorf("analysis.smooth_window %d must be at least 1", cfg.Analysis.SmoothWindow))
	}
	if cfg.Analysis.FrameRate < 0 {
		errs = append(errs, fmt.Errorf("analysis.frame_rate %v must not be negative", cfg.Analysis.FrameRate))
	}

	if cfg.Decode.SampleFormat != "" && !source.IsSampleFormat(cfg.Decode.SampleFormat) {
		errs = append(errs, fmt.Errorf("decode.sample_format %q is invalid; valid values: %s",
			cfg.Decode.SampleFormat, strings.Join(source.SampleFormats(), ", ")))
	}
	if cfg.Decode.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("decode.sample_rate %d must not be negative", cfg.Decode.SampleRate))
	}

	if err := cfg.Raw.Format().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("raw: %w", err))
	}

	if cfg.Output.Format != "" && !cfg.Output.Format.IsValid() {
		errs = append(errs, fmt.Errorf("output.format %q is invalid; valid values: yaml, json, text", cfg.Output.Format))
	}

	return errors.Join(errs...)
}

// Warnings lists settings in cfg that are valid but cannot produce a useful
// result. Callers log them once their logger is configured.
func Warnings(cfg *Config) []string {
	var warns []string
	if cfg.Tone.Duration.Seconds() > analysis.HorizonSeconds {
		warns = append(warns, fmt.Sprintf("tone.duration %v exceeds the %ds analysis horizon; window detection will never match",
			cfg.Tone.Duration, analysis.HorizonSeconds))
	}
	return warns
}
