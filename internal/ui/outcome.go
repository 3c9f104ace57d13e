package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/syncframe/internal/analysis"
	"github.com/olivier-w/syncframe/internal/report"
	"github.com/olivier-w/syncframe/internal/video"
)

// Outcome is everything the result screen shows for one analyzed file.
type Outcome struct {
	Path   string
	Title  string
	Result *analysis.Result
	Report *report.Report
	// Probe is nil for audio-only inputs.
	Probe *video.Probe
	// Captured holds the PCM bytes the analysis consumed, for previews.
	Captured []byte
}

// HasVideo reports whether the outcome has a video stream to grab frames from.
func (o *Outcome) HasVideo() bool {
	return o != nil && o.Probe != nil && o.Probe.HasVideo
}

// AnalyzeFunc runs the full pipeline for path.
type AnalyzeFunc func(ctx context.Context, path string, progress analysis.Progress) (*Outcome, error)

// ThumbnailFunc renders video frame of path in at most cols×rows cells.
type ThumbnailFunc func(ctx context.Context, path string, frame int, frameRate float64, cols, rows int) (string, error)

// Previewer plays 16-bit mono clips.
type Previewer interface {
	Play(clip []byte) error
	Stop()
}

// Options wires the result screen to the pipeline.
type Options struct {
	Analyze   AnalyzeFunc
	Thumbnail ThumbnailFunc
	Preview   Previewer
}

// WaitForProgress returns a command that delivers the next progress update
// from ch, or nil once ch is closed.
func WaitForProgress(ch <-chan ProgressMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// ProgressSink returns an analysis progress callback that forwards to ch
// without blocking; updates are dropped while ch is full.
func ProgressSink(ch chan<- ProgressMsg) analysis.Progress {
	return func(done, total int) {
		select {
		case ch <- ProgressMsg{Done: done, Total: total}:
		default:
		}
	}
}
