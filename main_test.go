package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/olivier-w/syncframe/internal/analysis"
	"github.com/olivier-w/syncframe/internal/config"
	"github.com/olivier-w/syncframe/internal/store"
	"github.com/olivier-w/syncframe/internal/video"
)

const synthLead = 30

func stubVideoDeps() func() {
	origProbe := probeMedia
	origGrab := grabFrame
	return func() {
		probeMedia = origProbe
		grabFrame = origGrab
	}
}

func testPipeline(t *testing.T) *pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.Analysis.FrameRate = 25
	cfg.Analysis.SmoothWindow = 1
	return &pipeline{cfg: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// synthFile writes a 48 kHz test WAV with a one-second burst at frame 30.
func synthFile(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sync.wav")
	if err := writeSynth(path, cfg, synthLead); err != nil {
		t.Fatalf("writeSynth() error = %v", err)
	}
	return path
}

func TestLoadConfigAppliesFlagOverrides(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "syncframe.yaml")
	yaml := "tone:\n  frequency_hz: 440\n  duration: 500ms\nanalysis:\n  smooth_window: 9\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, paths, err := parseFlags([]string{"-config", cfgPath, "-fps", "29.97", "-smooth", "3", "-format", "json", "a.mov", "b.wav"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if len(paths) != 2 || paths[0] != "a.mov" {
		t.Fatalf("paths = %v", paths)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Tone.FrequencyHz != 440 || cfg.Tone.Duration != 500*time.Millisecond {
		t.Fatalf("tone = %+v, want file values", cfg.Tone)
	}
	if cfg.Analysis.SmoothWindow != 3 || cfg.Analysis.FrameRate != 29.97 {
		t.Fatalf("analysis = %+v, want flag overrides", cfg.Analysis)
	}
	if cfg.Output.Format != config.OutputJSON {
		t.Fatalf("output format = %q, want json", cfg.Output.Format)
	}
}

func TestLoadConfigRejectsInvalidFlags(t *testing.T) {
	for _, args := range [][]string{
		{"-format", "xml"},
		{"-log-level", "loud"},
		{"-tone", "-5"},
	} {
		opts, _, err := parseFlags(args, io.Discard)
		if err != nil {
			t.Fatalf("parseFlags(%v) error = %v", args, err)
		}
		if _, err := loadConfig(opts); err == nil {
			t.Fatalf("loadConfig(%v) = nil error, want validation failure", args)
		}
	}
}

func TestNewLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogWarn, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "path", "a.mov")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") || !strings.Contains(out, "path=a.mov") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestLoadConfigWarnsOnceAfterLoggerSetup(t *testing.T) {
	opts, _, err := parseFlags([]string{"-duration", "40s"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	var buf bytes.Buffer
	logConfigWarnings(newLogger(config.LogInfo, &buf), cfg)
	if n := strings.Count(buf.String(), "analysis horizon"); n != 1 {
		t.Fatalf("got %d horizon warnings, want 1:\n%s", n, buf.String())
	}
}

func TestPipelineAnalyzeFindsSynthBurst(t *testing.T) {
	p := testPipeline(t)
	path := synthFile(t, p.cfg)

	var last int
	out, err := p.analyze(context.Background(), path, func(done, total int) { last = done })
	if err != nil {
		t.Fatalf("analyze() error = %v", err)
	}
	if frame, ok := out.Result.Consensus(); !ok || frame != synthLead {
		t.Fatalf("Consensus() = %d, %v; want %d, true", frame, ok, synthLead)
	}
	if out.Probe != nil || out.HasVideo() {
		t.Fatal("expected audio-only outcome")
	}

	// 30 lead + 25 burst + 25 tail frames of 1920 16-bit samples.
	frames := synthLead + 2*25
	if len(out.Captured) != frames*1920*2 {
		t.Fatalf("captured %d bytes, want %d", len(out.Captured), frames*1920*2)
	}
	if last != frames {
		t.Fatalf("last progress = %d, want %d", last, frames)
	}
	if out.Report == nil || out.Report.Consensus == nil || out.Report.Consensus.Frame != synthLead {
		t.Fatalf("report consensus = %+v", out.Report)
	}
}

func TestPipelineNeedsFrameRateForAudio(t *testing.T) {
	p := testPipeline(t)
	path := synthFile(t, p.cfg)
	p.cfg.Analysis.FrameRate = 0

	_, err := p.analyze(context.Background(), path, nil)
	if err == nil || !strings.Contains(err.Error(), "no frame rate") {
		t.Fatalf("analyze() error = %v, want missing frame rate", err)
	}
}

func TestPipelineRemembersRuns(t *testing.T) {
	p := testPipeline(t)
	path := synthFile(t, p.cfg)

	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer st.Close()
	p.store = st

	for range 2 {
		if _, err := p.analyze(context.Background(), path, nil); err != nil {
			t.Fatalf("analyze() error = %v", err)
		}
	}

	runs, err := st.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1 (same key replaces)", len(runs))
	}
	if got := runs[0].Candidates[analysis.MethodWindow]; len(got) != 1 || got[0] != synthLead {
		t.Fatalf("stored window candidates = %v", got)
	}

	var buf bytes.Buffer
	if err := printHistory(context.Background(), &buf, st, 5); err != nil {
		t.Fatalf("printHistory() error = %v", err)
	}
	if !strings.Contains(buf.String(), path) || !strings.Contains(buf.String(), "window [30]") {
		t.Fatalf("unexpected history:\n%s", buf.String())
	}
}

func TestSameCandidatesIgnoresMissingMethods(t *testing.T) {
	a := map[analysis.Method]analysis.Candidates{analysis.MethodWindow: {3}}
	b := map[analysis.Method]analysis.Candidates{analysis.MethodWindow: {3}, analysis.MethodRun: {}}
	if !sameCandidates(a, b) {
		t.Fatal("expected empty and missing candidate lists to match")
	}
	b[analysis.MethodPeak] = analysis.Candidates{4}
	if sameCandidates(a, b) {
		t.Fatal("expected differing peak candidates to mismatch")
	}
}

func TestThumbnailProbesOnceAndScales(t *testing.T) {
	defer stubVideoDeps()()

	probes := 0
	probeMedia = func(context.Context, string) (video.Probe, error) {
		probes++
		return video.Probe{Width: 320, Height: 240, FPS: 25, HasVideo: true}, nil
	}
	var gotW, gotH, gotIndex int
	grabFrame = func(_ context.Context, _ string, index int, frameRate float64, w, h int) (*video.Frame, error) {
		gotW, gotH, gotIndex = w, h, index
		rgb := bytes.Repeat([]byte{255}, w*h*3)
		return &video.Frame{Index: index, Width: w, Height: h, RGB: rgb}, nil
	}

	p := testPipeline(t)
	p.ascii = true
	for range 2 {
		text, err := p.thumbnail(context.Background(), "take.mov", 30, 25, 32, 9)
		if err != nil {
			t.Fatalf("thumbnail() error = %v", err)
		}
		if want := strings.Repeat("@", 24); !strings.HasPrefix(text, want+"\n") {
			t.Fatalf("thumbnail first row = %q, want %q", strings.SplitN(text, "\n", 2)[0], want)
		}
	}
	if probes != 1 {
		t.Fatalf("probed %d times, want 1", probes)
	}
	if gotW != 24 || gotH != 9 || gotIndex != 30 {
		t.Fatalf("grab size = %dx%d frame %d, want 24x9 frame 30", gotW, gotH, gotIndex)
	}
}

func TestThumbnailAudioOnly(t *testing.T) {
	p := testPipeline(t)
	if _, err := p.thumbnail(context.Background(), "take.wav", 0, 25, 32, 9); !errors.Is(err, video.ErrNoVideo) {
		t.Fatalf("thumbnail() error = %v, want ErrNoVideo", err)
	}
}

func TestRunPlainWritesReports(t *testing.T) {
	p := testPipeline(t)
	path := synthFile(t, p.cfg)
	p.cfg.Output.Format = config.OutputJSON
	p.cfg.Output.Path = filepath.Join(t.TempDir(), "report.json")

	if err := runPlain(context.Background(), p, []string{path, path}); err != nil {
		t.Fatalf("runPlain() error = %v", err)
	}
	data, err := os.ReadFile(p.cfg.Output.Path)
	if err != nil {
		t.Fatal(err)
	}
	var reports []struct {
		Path      string `json:"path"`
		Consensus struct {
			Frame int `json:"frame"`
		} `json:"consensus"`
	}
	if err := json.Unmarshal(data, &reports); err != nil {
		t.Fatalf("decoding report: %v\n%s", err, data)
	}
	if len(reports) != 2 || reports[0].Path != path || reports[1].Consensus.Frame != synthLead {
		t.Fatalf("reports = %+v", reports)
	}
}

func TestCheckInput(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{dir, notes, filepath.Join(dir, "missing.wav")} {
		if err := checkInput(path); err == nil {
			t.Fatalf("checkInput(%q) = nil, want error", path)
		}
	}
}
