package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/olivier-w/syncframe/internal/pcm"
)

// Params configures one analysis run.
type Params struct {
	Format    pcm.Format
	FrameRate float64
	ToneHz    float64
	// SignalFrames is the expected burst length in video frames.
	SignalFrames int
	// SmoothWindow is the width of the forward averaging window.
	SmoothWindow int
	Progress     Progress
	Logger       *slog.Logger
}

// SignalFrames converts a burst duration in seconds to video frames, never
// less than one.
func SignalFrames(seconds, frameRate float64) int {
	return max(1, int(math.Round(seconds*frameRate)))
}

// Result is the outcome of one analysis run. It is not modified after
// [Analyze] returns.
type Result struct {
	Format          pcm.Format
	FrameRate       float64
	ToneHz          float64
	SamplesPerFrame int
	TargetBin       int
	SignalFrames    int
	SmoothWindow    int
	Raw             []float64
	Smoothed        []float64
	Candidates      map[Method]Candidates
}

// Analyze extracts the tone magnitudes from r, smooths them and runs every
// detector over the smoothed sequence.
func Analyze(ctx context.Context, r io.Reader, p Params) (*Result, error) {
	if p.SignalFrames < 1 {
		return nil, fmt.Errorf("analysis: signal length %d frames must be positive", p.SignalFrames)
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ex := &Extractor{
		Format:    p.Format,
		FrameRate: p.FrameRate,
		ToneHz:    p.ToneHz,
		Progress:  p.Progress,
		Logger:    logger,
	}
	raw, err := ex.Extract(ctx, r)
	if err != nil {
		return nil, err
	}

	n := SamplesPerFrame(p.Format.SampleRate, p.FrameRate)
	res := &Result{
		Format:          p.Format,
		FrameRate:       p.FrameRate,
		ToneHz:          p.ToneHz,
		SamplesPerFrame: n,
		TargetBin:       TargetBin(p.Format.SampleRate, p.ToneHz, n),
		SignalFrames:    p.SignalFrames,
		SmoothWindow:    max(1, p.SmoothWindow),
		Raw:             raw,
		Smoothed:        Smooth(raw, p.SmoothWindow),
		Candidates:      make(map[Method]Candidates, len(Methods)),
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, method := range Methods {
		detect := DetectorFor(method)
		g.Go(func() error {
			c := detect(res.Smoothed, res.SignalFrames)
			mu.Lock()
			res.Candidates[method] = c
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("analysis complete",
		"frames", len(raw),
		"signal_frames", res.SignalFrames,
		"window", res.Candidates[MethodWindow],
		"run", res.Candidates[MethodRun],
		"peak", res.Candidates[MethodPeak],
	)
	return res, nil
}

// FrameTime returns the offset of video frame i from the start, in seconds.
func (r *Result) FrameTime(i int) float64 {
	return float64(i) / r.FrameRate
}

// Consensus returns the frame proposed by the most detectors, breaking ties
// in [Methods] order. ok is false when no detector produced a candidate.
func (r *Result) Consensus() (frame int, ok bool) {
	votes := make(map[int]int)
	var order []int
	for _, m := range Methods {
		for _, f := range r.Candidates[m] {
			if votes[f] == 0 {
				order = append(order, f)
			}
			votes[f]++
		}
	}
	best := -1
	for _, f := range order {
		if best < 0 || votes[f] > votes[best] {
			best = f
		}
	}
	return best, best >= 0
}
