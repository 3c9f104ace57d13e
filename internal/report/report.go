// Package report formats analysis results for people and scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/olivier-w/syncframe/internal/analysis"
	"github.com/olivier-w/syncframe/internal/config"
	"github.com/olivier-w/syncframe/internal/util"
	"github.com/olivier-w/syncframe/internal/video"
)

// Report is the serializable summary of one analysis run.
type Report struct {
	Path            string        `yaml:"path" json:"path"`
	Title           string        `yaml:"title,omitempty" json:"title,omitempty"`
	Format          string        `yaml:"format" json:"format"`
	FrameRate       float64       `yaml:"frame_rate" json:"frame_rate"`
	ToneHz          float64       `yaml:"tone_hz" json:"tone_hz"`
	SamplesPerFrame int           `yaml:"samples_per_frame" json:"samples_per_frame"`
	TargetBin       int           `yaml:"target_bin" json:"target_bin"`
	SignalFrames    int           `yaml:"signal_frames" json:"signal_frames"`
	SmoothWindow    int           `yaml:"smooth_window" json:"smooth_window"`
	FramesAnalyzed  int           `yaml:"frames_analyzed" json:"frames_analyzed"`
	Video           *VideoInfo    `yaml:"video,omitempty" json:"video,omitempty"`
	Methods         []MethodEntry `yaml:"methods" json:"methods"`
	Consensus       *Candidate    `yaml:"consensus,omitempty" json:"consensus,omitempty"`

	// Thumbnail is a rendered consensus frame, shown in text output only.
	Thumbnail string `yaml:"-" json:"-"`
}

// VideoInfo describes the probed video stream.
type VideoInfo struct {
	Width    int     `yaml:"width" json:"width"`
	Height   int     `yaml:"height" json:"height"`
	Codec    string  `yaml:"codec,omitempty" json:"codec,omitempty"`
	Duration float64 `yaml:"duration_seconds" json:"duration_seconds"`
}

// MethodEntry lists the candidates of one detector.
type MethodEntry struct {
	Method     analysis.Method `yaml:"method" json:"method"`
	Candidates []Candidate     `yaml:"candidates" json:"candidates"`
}

// Candidate is a video frame and its position.
type Candidate struct {
	Frame    int     `yaml:"frame" json:"frame"`
	Seconds  float64 `yaml:"seconds" json:"seconds"`
	Timecode string  `yaml:"timecode" json:"timecode"`
}

// New builds a report for res. probe may be nil for audio-only inputs.
func New(path, title string, res *analysis.Result, probe *video.Probe) *Report {
	r := &Report{
		Path:            path,
		Title:           title,
		Format:          res.Format.String(),
		FrameRate:       res.FrameRate,
		ToneHz:          res.ToneHz,
		SamplesPerFrame: res.SamplesPerFrame,
		TargetBin:       res.TargetBin,
		SignalFrames:    res.SignalFrames,
		SmoothWindow:    res.SmoothWindow,
		FramesAnalyzed:  len(res.Raw),
	}
	if probe != nil && probe.HasVideo {
		r.Video = &VideoInfo{
			Width:    probe.Width,
			Height:   probe.Height,
			Codec:    probe.Codec,
			Duration: probe.Duration.Seconds(),
		}
	}
	for _, m := range analysis.Methods {
		entry := MethodEntry{Method: m, Candidates: []Candidate{}}
		for _, f := range res.Candidates[m] {
			entry.Candidates = append(entry.Candidates, newCandidate(f, res.FrameRate))
		}
		r.Methods = append(r.Methods, entry)
	}
	if f, ok := res.Consensus(); ok {
		c := newCandidate(f, res.FrameRate)
		r.Consensus = &c
	}
	return r
}

func newCandidate(frame int, frameRate float64) Candidate {
	return Candidate{
		Frame:    frame,
		Seconds:  util.FrameDuration(frame, frameRate).Seconds(),
		Timecode: util.Timecode(frame, frameRate),
	}
}

// Write encodes reports to w in the given format. Text output separates
// reports with a blank line; YAML uses one document per report; JSON writes
// a single array.
func Write(w io.Writer, format config.OutputFormat, reports ...*Report) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if reports == nil {
			reports = []*Report{}
		}
		return enc.Encode(reports)
	case config.OutputText:
		for i, r := range reports {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, r.Text()+"\n"); err != nil {
				return err
			}
		}
		return nil
	case config.OutputYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, r := range reports {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encoding report for %s: %w", r.Path, err)
			}
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().
			Width(12).
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#AAAAAA"})
	frameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#007A5E", Dark: "#3DDC97"})
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
)

// Text renders r as aligned, styled plain text.
func (r *Report) Text() string {
	var b strings.Builder
	name := r.Title
	if name == "" {
		name = r.Path
	}
	b.WriteString(titleStyle.Render(name) + "\n")
	if r.Title != "" && r.Title != r.Path {
		b.WriteString(dimStyle.Render(r.Path) + "\n")
	}

	line := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}
	line("audio", r.Format)
	if r.Video != nil {
		line("video", fmt.Sprintf("%dx%d %s %.3f fps %s", r.Video.Width, r.Video.Height, r.Video.Codec, r.FrameRate,
			util.FormatDuration(time.Duration(r.Video.Duration*float64(time.Second)))))
	} else {
		line("frame rate", fmt.Sprintf("%.3f fps", r.FrameRate))
	}
	line("tone", fmt.Sprintf("%g Hz, bin %d of %d, %d frames", r.ToneHz, r.TargetBin, 2*r.SamplesPerFrame, r.SignalFrames))
	line("analyzed", fmt.Sprintf("%d frames, smoothing %d", r.FramesAnalyzed, r.SmoothWindow))

	for _, m := range r.Methods {
		if len(m.Candidates) == 0 {
			line(string(m.Method), dimStyle.Render("no candidate"))
			continue
		}
		parts := make([]string, len(m.Candidates))
		for i, c := range m.Candidates {
			parts[i] = c.String()
		}
		line(string(m.Method), strings.Join(parts, ", "))
	}
	if r.Consensus != nil {
		line("sync frame", r.Consensus.String())
	} else {
		line("sync frame", dimStyle.Render("not found"))
	}
	if r.Thumbnail != "" {
		b.WriteString("\n" + r.Thumbnail + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c Candidate) String() string {
	return frameStyle.Render(fmt.Sprintf("frame %d", c.Frame)) +
		dimStyle.Render(fmt.Sprintf(" (%s, %.3fs)", c.Timecode, c.Seconds))
}
