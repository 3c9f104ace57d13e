// Package video probes container files and grabs single frames from them
// through ffprobe and ffmpeg.
package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrNoVideo is returned when a file has no video stream.
var ErrNoVideo = errors.New("no video stream")

// Process seams, replaced in tests.
var (
	lookPath  = exec.LookPath
	runOutput = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = nil
		return cmd.Output()
	}
)

// Probe holds video stream metadata from ffprobe.
type Probe struct {
	Width    int
	Height   int
	FPS      float64
	Frames   int
	Codec    string
	Duration time.Duration
	HasVideo bool
}

type ffprobeVideoResult struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"` // e.g. "30/1" or "24000/1001"
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeMedia uses ffprobe to get video stream metadata.
// Returns HasVideo=false if no video stream exists (audio-only files).
func ProbeMedia(ctx context.Context, path string) (Probe, error) {
	ffprobe, err := lookPath("ffprobe")
	if err != nil {
		return Probe{}, fmt.Errorf("ffprobe not found")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	output, err := runOutput(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"-select_streams", "v:0",
		path,
	)
	if err != nil {
		return Probe{}, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (Probe, error) {
	var result ffprobeVideoResult
	if err := json.Unmarshal(output, &result); err != nil {
		return Probe{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	durSec, _ := strconv.ParseFloat(result.Format.Duration, 64)
	dur := time.Duration(durSec * float64(time.Second))

	for _, s := range result.Streams {
		if s.CodecType != "video" {
			continue
		}
		// Sync analysis needs the nominal rate; avg_frame_rate drifts on
		// variable-rate captures.
		fps := parseFraction(s.RFrameRate)
		if fps <= 0 {
			fps = parseFraction(s.AvgFrameRate)
		}
		frames, _ := strconv.Atoi(s.NbFrames)
		return Probe{
			Width:    s.Width,
			Height:   s.Height,
			FPS:      fps,
			Frames:   frames,
			Codec:    s.CodecName,
			Duration: dur,
			HasVideo: true,
		}, nil
	}

	return Probe{Duration: dur, HasVideo: false}, nil
}

// parseFraction parses "num/den" or a plain number into a float64.
// Malformed input and zero denominators give 0.
func parseFraction(s string) float64 {
	numStr, denStr, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		f, _ := strconv.ParseFloat(numStr, 64)
		return f
	}
	num, err1 := strconv.ParseFloat(numStr, 64)
	den, err2 := strconv.ParseFloat(denStr, 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
