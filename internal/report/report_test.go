package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/olivier-w/syncframe/internal/analysis"
	"github.com/olivier-w/syncframe/internal/config"
	"github.com/olivier-w/syncframe/internal/pcm"
	"github.com/olivier-w/syncframe/internal/video"
)

func testResult() *analysis.Result {
	return &analysis.Result{
		Format:          pcm.Format{SampleRate: 48000, Channels: 2, BitsPerSample: 16},
		FrameRate:       25,
		ToneHz:          1000,
		SamplesPerFrame: 1920,
		TargetBin:       1879,
		SignalFrames:    25,
		SmoothWindow:    5,
		Raw:             make([]float64, 750),
		Candidates: map[analysis.Method]analysis.Candidates{
			analysis.MethodWindow: {40},
			analysis.MethodRun:    nil,
			analysis.MethodPeak:   {41},
		},
	}
}

func TestNew(t *testing.T) {
	probe := &video.Probe{Width: 1920, Height: 1080, Codec: "h264", Duration: 90 * time.Second, HasVideo: true}
	r := New("take1.mov", "Take 1", testResult(), probe)

	if r.FramesAnalyzed != 750 {
		t.Fatalf("FramesAnalyzed = %d, want 750", r.FramesAnalyzed)
	}
	if r.Video == nil || r.Video.Width != 1920 || r.Video.Duration != 90 {
		t.Fatalf("Video = %+v", r.Video)
	}
	if len(r.Methods) != 3 || r.Methods[0].Method != analysis.MethodWindow {
		t.Fatalf("Methods = %+v", r.Methods)
	}
	c := r.Methods[0].Candidates[0]
	if c.Frame != 40 || c.Seconds != 1.6 || c.Timecode != "00:00:01:15" {
		t.Fatalf("window candidate = %+v", c)
	}
	if len(r.Methods[1].Candidates) != 0 {
		t.Fatalf("run candidates = %+v, want none", r.Methods[1].Candidates)
	}
	if r.Consensus == nil || r.Consensus.Frame != 40 {
		t.Fatalf("Consensus = %+v, want frame 40", r.Consensus)
	}

	audioOnly := New("take1.wav", "", testResult(), &video.Probe{HasVideo: false})
	if audioOnly.Video != nil {
		t.Fatal("expected no video info for audio-only probe")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	r := New("a.mp4", "", testResult(), nil)
	if err := Write(&buf, config.OutputJSON, r); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if len(got) != 1 || got[0]["path"] != "a.mp4" {
		t.Fatalf("decoded = %v", got)
	}
	methods := got[0]["methods"].([]any)
	run := methods[1].(map[string]any)
	if cands, ok := run["candidates"].([]any); !ok || len(cands) != 0 {
		t.Fatalf("run candidates = %v, want empty array", run["candidates"])
	}

	buf.Reset()
	if err := Write(&buf, config.OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("empty JSON = %q, want []", buf.String())
	}
}

func TestWriteYAMLDocuments(t *testing.T) {
	var buf bytes.Buffer
	a := New("a.mp4", "", testResult(), nil)
	b := New("b.mp4", "", testResult(), nil)
	if err := Write(&buf, config.OutputYAML, a, b); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	dec := yaml.NewDecoder(&buf)
	var paths []string
	for {
		var doc struct {
			Path      string `yaml:"path"`
			Consensus struct {
				Frame int `yaml:"frame"`
			} `yaml:"consensus"`
		}
		if err := dec.Decode(&doc); err != nil {
			break
		}
		if doc.Consensus.Frame != 40 {
			t.Fatalf("consensus frame = %d, want 40", doc.Consensus.Frame)
		}
		paths = append(paths, doc.Path)
	}
	if strings.Join(paths, ",") != "a.mp4,b.mp4" {
		t.Fatalf("documents = %v", paths)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	r := New("take1.mov", "Take 1", testResult(), nil)
	r.Thumbnail = "@@@@"
	if err := Write(&buf, config.OutputText, r); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Take 1", "take1.mov", "frame 40", "00:00:01:15", "no candidate", "sync frame", "@@@@"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, config.OutputFormat("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
