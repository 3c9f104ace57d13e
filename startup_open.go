package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/olivier-w/syncframe/internal/analysis"
	"github.com/olivier-w/syncframe/internal/config"
	"github.com/olivier-w/syncframe/internal/media"
	"github.com/olivier-w/syncframe/internal/preview"
	"github.com/olivier-w/syncframe/internal/report"
	"github.com/olivier-w/syncframe/internal/source"
	"github.com/olivier-w/syncframe/internal/store"
	"github.com/olivier-w/syncframe/internal/ui"
	"github.com/olivier-w/syncframe/internal/video"
)

// Seams for tests.
var (
	probeMedia = video.ProbeMedia
	grabFrame  = video.GrabFrame
)

const (
	reportThumbCols = 48
	reportThumbRows = 14
)

// pipeline runs the analysis for one file at a time and remembers video
// probes for later thumbnail requests.
type pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	ascii  bool

	probes sync.Map // path -> *video.Probe
}

func (p *pipeline) analyze(ctx context.Context, path string, progress analysis.Progress) (*ui.Outcome, error) {
	logger := p.logger.With("path", path)

	probe, err := p.probe(ctx, path)
	if err != nil {
		return nil, err
	}
	frameRate := p.cfg.Analysis.FrameRate
	if frameRate <= 0 && probe != nil {
		frameRate = probe.FPS
	}
	if frameRate <= 0 {
		return nil, fmt.Errorf("no frame rate for %s; set analysis.frame_rate or -fps", filepath.Base(path))
	}

	s, err := source.Open(ctx, path, source.Options{
		Raw:          p.cfg.Raw.Format(),
		SampleFormat: p.cfg.Decode.SampleFormat,
		SampleRate:   p.cfg.Decode.SampleRate,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	defer s.Close()

	limit := analysis.FrameCap(frameRate) * analysis.SamplesPerFrame(s.Format.SampleRate, frameRate) * s.Format.FrameSize()
	capture := preview.NewCapture(s, limit)
	res, err := analysis.Analyze(ctx, capture, analysis.Params{
		Format:       s.Format,
		FrameRate:    frameRate,
		ToneHz:       p.cfg.Tone.FrequencyHz,
		SignalFrames: analysis.SignalFrames(p.cfg.Tone.Duration.Seconds(), frameRate),
		SmoothWindow: p.cfg.Analysis.SmoothWindow,
		Progress:     progress,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", path, err)
	}

	if p.store != nil {
		p.remember(ctx, logger, path, res)
	}

	return &ui.Outcome{
		Path:     path,
		Title:    s.Title,
		Result:   res,
		Report:   report.New(path, s.Title, res, probe),
		Probe:    probe,
		Captured: capture.Bytes(),
	}, nil
}

// probe returns the video probe of path, or nil for audio-only inputs.
func (p *pipeline) probe(ctx context.Context, path string) (*video.Probe, error) {
	if v, ok := p.probes.Load(path); ok {
		return v.(*video.Probe), nil
	}
	if !media.IsVideoExt(filepath.Ext(path)) {
		return nil, nil
	}
	pr, err := probeMedia(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}
	if !pr.HasVideo {
		p.logger.Debug("no video stream", "path", path)
		return nil, nil
	}
	p.probes.Store(path, &pr)
	return &pr, nil
}

// remember stores res and logs when it differs from an earlier run with the
// same inputs. History failures never fail the analysis.
func (p *pipeline) remember(ctx context.Context, logger *slog.Logger, path string, res *analysis.Result) {
	key, err := store.KeyFor(path, res)
	if err != nil {
		logger.Warn("skipping history", "err", err)
		return
	}
	prev, ok, err := p.store.Lookup(ctx, key)
	if err != nil {
		logger.Warn("history lookup failed", "err", err)
	} else if ok && !sameCandidates(prev.Candidates, res.Candidates) {
		logger.Warn("result differs from previous run",
			"previous_run", prev.ID, "previous_at", prev.CreatedAt)
	}
	if _, err := p.store.Save(ctx, key, res.Candidates); err != nil {
		logger.Warn("history save failed", "err", err)
	}
}

func sameCandidates(a, b map[analysis.Method]analysis.Candidates) bool {
	for _, m := range analysis.Methods {
		if !slices.Equal(a[m], b[m]) {
			return false
		}
	}
	return true
}

func (p *pipeline) thumbnail(ctx context.Context, path string, frame int, frameRate float64, cols, rows int) (string, error) {
	probe, err := p.probe(ctx, path)
	if err != nil {
		return "", err
	}
	if probe == nil {
		return "", video.ErrNoVideo
	}
	t := video.Thumbnail{ASCII: p.ascii}
	w, h := t.Size(probe.Width, probe.Height, cols, rows)
	f, err := grabFrame(ctx, path, frame, frameRate, w, h)
	if err != nil {
		return "", err
	}
	return t.Render(f), nil
}

// runPlain analyzes paths concurrently and writes their reports in argument
// order.
func runPlain(ctx context.Context, p *pipeline, paths []string) error {
	reports := make([]*report.Report, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			out, err := p.analyze(ctx, path, nil)
			if err != nil {
				return err
			}
			if p.cfg.Output.Format == config.OutputText {
				p.attachThumbnail(ctx, out)
			}
			reports[i] = out.Report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	if p.cfg.Output.Path != "" {
		f, err := os.Create(p.cfg.Output.Path)
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		defer f.Close()
		w = f
	}
	return report.Write(w, p.cfg.Output.Format, reports...)
}

func (p *pipeline) attachThumbnail(ctx context.Context, out *ui.Outcome) {
	frame, ok := out.Result.Consensus()
	if !ok || !out.HasVideo() {
		return
	}
	text, err := p.thumbnail(ctx, out.Path, frame, out.Result.FrameRate, reportThumbCols, reportThumbRows)
	if err != nil {
		p.logger.Warn("thumbnail failed", "path", out.Path, "frame", frame, "err", err)
		return
	}
	out.Report.Thumbnail = text
}

func printHistory(ctx context.Context, w io.Writer, st *store.Store, n int) error {
	runs, err := st.Recent(ctx, n)
	if err != nil {
		return err
	}
	for _, r := range runs {
		var parts []string
		for _, m := range analysis.Methods {
			parts = append(parts, fmt.Sprintf("%s %v", m, []int(r.Candidates[m])))
		}
		fmt.Fprintf(w, "%s  %s  %g Hz  %.3f fps  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Key.Path, r.Key.ToneHz, r.Key.FrameRate,
			strings.Join(parts, "  "))
	}
	return nil
}
