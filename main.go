// Command syncframe finds the video frame at which a sync tone starts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/olivier-w/syncframe/internal/analysis"
	"github.com/olivier-w/syncframe/internal/config"
	"github.com/olivier-w/syncframe/internal/media"
	"github.com/olivier-w/syncframe/internal/preview"
	"github.com/olivier-w/syncframe/internal/source"
	"github.com/olivier-w/syncframe/internal/store"
	"github.com/olivier-w/syncframe/internal/ui"
)

type options struct {
	configPath string
	plain      bool
	ascii      bool
	outPath    string
	format     string
	toneHz     float64
	duration   time.Duration
	frameRate  float64
	smooth     int
	logFile    string
	logLevel   string
	dbPath     string
	history    int
	synthPath  string
	synthAt    int
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "syncframe: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, paths, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if opts.synthPath != "" {
		return writeSynth(opts.synthPath, cfg, opts.synthAt)
	}

	plain := opts.plain || opts.history > 0 || cfg.Output.Path != "" || !isatty.IsTerminal(os.Stdout.Fd())
	logOut := io.Writer(os.Stderr)
	if !plain {
		// The terminal belongs to the TUI.
		logOut = io.Discard
	}
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(cfg.LogLevel, logOut)
	slog.SetDefault(logger)
	logConfigWarnings(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := &pipeline{cfg: cfg, logger: logger, ascii: opts.ascii}
	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		p.store = st
	}

	if opts.history > 0 {
		if p.store == nil {
			return errors.New("-history needs a database; set store.path or -db")
		}
		return printHistory(ctx, os.Stdout, p.store, opts.history)
	}

	for _, path := range paths {
		if err := checkInput(path); err != nil {
			return err
		}
	}

	if plain {
		if len(paths) == 0 {
			return errors.New("no input files")
		}
		return runPlain(ctx, p, paths)
	}
	return runInteractive(ctx, p, paths)
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	o := &options{}
	fs := flag.NewFlagSet("syncframe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "path to a YAML configuration file")
	fs.BoolVar(&o.plain, "plain", false, "print reports instead of starting the interactive screen")
	fs.BoolVar(&o.ascii, "ascii", false, "render frame thumbnails as ASCII")
	fs.StringVar(&o.outPath, "o", "", "write the report to this file")
	fs.StringVar(&o.format, "format", "", "report format: yaml, json or text")
	fs.Float64Var(&o.toneHz, "tone", 0, "sync tone frequency in Hz")
	fs.DurationVar(&o.duration, "duration", 0, "sync tone burst length")
	fs.Float64Var(&o.frameRate, "fps", 0, "video frame rate; required for audio-only inputs")
	fs.IntVar(&o.smooth, "smooth", 0, "smoothing window in frames")
	fs.StringVar(&o.logFile, "log-file", "", "append logs to this file")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&o.dbPath, "db", "", "SQLite history database")
	fs.IntVar(&o.history, "history", 0, "list the last N stored analyses and exit")
	fs.StringVar(&o.synthPath, "synth", "", "write a test WAV with a tone burst to this path and exit")
	fs.IntVar(&o.synthAt, "synth-at", 30, "video frame at which the -synth burst starts")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: syncframe [flags] [file ...]\n\nsupported inputs: %s\n\n", media.SupportedExtsList())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return o, fs.Args(), nil
}

// loadConfig reads the configuration file, if any, and applies flag
// overrides on top of it.
func loadConfig(o *options) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}

	if o.logLevel != "" {
		cfg.LogLevel = config.LogLevel(o.logLevel)
	}
	if o.toneHz != 0 {
		cfg.Tone.FrequencyHz = o.toneHz
	}
	if o.duration != 0 {
		cfg.Tone.Duration = o.duration
	}
	if o.frameRate != 0 {
		cfg.Analysis.FrameRate = o.frameRate
	}
	if o.smooth != 0 {
		cfg.Analysis.SmoothWindow = o.smooth
	}
	if o.format != "" {
		cfg.Output.Format = config.OutputFormat(o.format)
	}
	if o.outPath != "" {
		cfg.Output.Path = o.outPath
	}
	if o.dbPath != "" {
		cfg.Store.Path = o.dbPath
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level config.LogLevel, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.Level()}))
}

func logConfigWarnings(logger *slog.Logger, cfg *config.Config) {
	for _, w := range config.Warnings(cfg) {
		logger.Warn(w)
	}
}

func checkInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if !media.IsSupportedExt(filepath.Ext(path)) {
		return fmt.Errorf("unsupported format %s (supported: %s)", filepath.Ext(path), media.SupportedExtsList())
	}
	return nil
}

func runInteractive(ctx context.Context, p *pipeline, paths []string) error {
	player := &preview.Player{}
	defer player.Stop()

	opts := ui.Options{
		Analyze:   p.analyze,
		Thumbnail: p.thumbnail,
		Preview:   player,
	}
	program := tea.NewProgram(newStartupModel(opts, paths), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func writeSynth(path string, cfg *config.Config, at int) error {
	frameRate := cfg.Analysis.FrameRate
	if frameRate <= 0 {
		frameRate = 25
	}
	if at < 0 {
		return fmt.Errorf("-synth-at %d must not be negative", at)
	}
	frames := analysis.SignalFrames(cfg.Tone.Duration.Seconds(), frameRate)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	s := source.Synth{
		SampleRate:   48000,
		FrameRate:    frameRate,
		ToneHz:       cfg.Tone.FrequencyHz,
		LeadFrames:   at,
		SignalFrames: frames,
		TailFrames:   frames,
	}
	if err := s.WriteWAV(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
