package video

import (
	"context"
	"fmt"
	"time"
)

// Frame is one decoded video frame as packed RGB24, row-major.
type Frame struct {
	Index  int
	Width  int
	Height int
	RGB    []byte
}

// At returns the color of pixel (x, y). Out-of-range pixels are black.
func (f *Frame) At(x, y int) (r, g, b uint8) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0, 0, 0
	}
	off := (y*f.Width + x) * 3
	if off+2 >= len(f.RGB) {
		return 0, 0, 0
	}
	return f.RGB[off], f.RGB[off+1], f.RGB[off+2]
}

// GrabFrame decodes video frame index of path, scaled to w×h pixels. The
// frame is located by seeking to index/frameRate seconds, so frameRate must
// be the rate the index was computed at.
func GrabFrame(ctx context.Context, path string, index int, frameRate float64, w, h int) (*Frame, error) {
	if index < 0 || frameRate <= 0 {
		return nil, fmt.Errorf("grabbing frame %d at %v fps: invalid position", index, frameRate)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("grabbing frame %d: invalid size %dx%d", index, w, h)
	}
	ffmpeg, err := lookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := runOutput(ctx, ffmpeg, grabArgs(path, index, frameRate, w, h)...)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg failed to grab frame %d: %w", index, err)
	}
	if want := w * h * 3; len(out) < want {
		return nil, fmt.Errorf("frame %d: got %d bytes, want %d (past end of video?)", index, len(out), want)
	}
	return &Frame{Index: index, Width: w, Height: h, RGB: out[:w*h*3]}, nil
}

func grabArgs(path string, index int, frameRate float64, w, h int) []string {
	at := time.Duration(float64(index) / frameRate * float64(time.Second))
	return []string{
		"-v", "quiet",
		"-ss", formatTimestamp(at),
		"-i", path,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-vf", fmt.Sprintf("scale=%d:%d", w, h),
		"-an",
		"pipe:1",
	}
}

// formatTimestamp formats d for ffmpeg -ss (HH:MM:SS.mmm).
func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}
