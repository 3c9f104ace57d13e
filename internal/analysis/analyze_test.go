package analysis

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/olivier-w/syncframe/internal/pcm"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestAnalyzeLocatesBurst(t *testing.T) {
	f := pcm.Format{SampleRate: 8000, Channels: 2, BitsPerSample: 24}
	const frameRate, toneHz = 25.0, 1000.0
	signal := SignalFrames(1.2, frameRate)
	buf := toneStream(f, frameRate, toneHz, 120, 40, 40+signal, 200000)

	res, err := Analyze(context.Background(), bytes.NewReader(buf), Params{
		Format:       f,
		FrameRate:    frameRate,
		ToneHz:       toneHz,
		SignalFrames: signal,
		SmoothWindow: 1,
		Logger:       quietLogger,
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(res.Raw) != 120 || len(res.Smoothed) != 120 {
		t.Fatalf("sequence lengths = %d/%d, want 120", len(res.Raw), len(res.Smoothed))
	}
	for _, m := range Methods {
		if got := res.Candidates[m]; !slices.Equal(got, Candidates{40}) {
			t.Fatalf("%s candidates = %v, want [40]", m, got)
		}
	}
	frame, ok := res.Consensus()
	if !ok || frame != 40 {
		t.Fatalf("Consensus() = %d, %v; want 40, true", frame, ok)
	}
	if got := res.FrameTime(40); got != 1.6 {
		t.Fatalf("FrameTime(40) = %v, want 1.6", got)
	}
}

func TestAnalyzeShortStreamIsNotAnError(t *testing.T) {
	f := pcm.Format{SampleRate: 8000, Channels: 1, BitsPerSample: 16}
	buf := toneStream(f, 25, 1000, 3, 0, 0, 0)

	res, err := Analyze(context.Background(), bytes.NewReader(buf), Params{
		Format:       f,
		FrameRate:    25,
		ToneHz:       1000,
		SignalFrames: 25,
		SmoothWindow: 3,
		Logger:       quietLogger,
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(res.Candidates[MethodWindow]) != 0 {
		t.Fatalf("window candidates = %v, want empty", res.Candidates[MethodWindow])
	}
	if len(res.Candidates[MethodRun]) != 0 {
		t.Fatalf("run candidates = %v, want empty", res.Candidates[MethodRun])
	}
	if got := res.Candidates[MethodPeak]; !slices.Equal(got, Candidates{0}) {
		t.Fatalf("peak candidates = %v, want [0]", got)
	}
}

func TestAnalyzeHonorsCancellation(t *testing.T) {
	f := pcm.Format{SampleRate: 8000, Channels: 1, BitsPerSample: 16}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Analyze(ctx, bytes.NewReader(make([]byte, 64000)), Params{
		Format:       f,
		FrameRate:    25,
		ToneHz:       1000,
		SignalFrames: 5,
		Logger:       quietLogger,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Analyze() error = %v, want context.Canceled", err)
	}
}

func TestConsensusBreaksTiesByMethodOrder(t *testing.T) {
	res := &Result{Candidates: map[Method]Candidates{
		MethodWindow: {12},
		MethodRun:    nil,
		MethodPeak:   {10},
	}}
	if frame, ok := res.Consensus(); !ok || frame != 12 {
		t.Fatalf("Consensus() = %d, %v; want 12, true", frame, ok)
	}

	res.Candidates[MethodRun] = Candidates{10}
	if frame, _ := res.Consensus(); frame != 10 {
		t.Fatalf("Consensus() = %d, want 10", frame)
	}

	empty := &Result{Candidates: map[Method]Candidates{}}
	if _, ok := empty.Consensus(); ok {
		t.Fatal("expected no consensus without candidates")
	}
}

func TestSignalFrames(t *testing.T) {
	if got := SignalFrames(1, 29.97); got != 30 {
		t.Fatalf("SignalFrames(1, 29.97) = %d, want 30", got)
	}
	if got := SignalFrames(0, 30); got != 1 {
		t.Fatalf("SignalFrames(0, 30) = %d, want 1", got)
	}
}
