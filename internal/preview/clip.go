// Package preview captures analyzed audio and plays short clips around a
// candidate sync frame.
package preview

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/olivier-w/syncframe/internal/analysis"
	"github.com/olivier-w/syncframe/internal/pcm"
)

// PlaybackRate is the sample rate of every clip.
const PlaybackRate = 48000

// Capture is an io.Reader that keeps a copy of up to Limit bytes read
// through it.
type Capture struct {
	r     io.Reader
	limit int

	mu  sync.Mutex
	buf []byte
}

// NewCapture wraps r, keeping at most limit bytes.
func NewCapture(r io.Reader, limit int) *Capture {
	return &Capture{r: r, limit: limit}
}

func (c *Capture) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.mu.Lock()
		if room := c.limit - len(c.buf); room > 0 {
			c.buf = append(c.buf, p[:min(n, room)]...)
		}
		c.mu.Unlock()
	}
	return n, err
}

// Bytes returns the captured bytes.
func (c *Capture) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf
}

// Clip returns channel 0 of data around video frame as 16-bit little-endian
// mono at [PlaybackRate]. The clip starts span frames before frame and ends
// span frames after it, clamped to the captured audio.
func Clip(data []byte, f pcm.Format, frameRate float64, frame, span int) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if frameRate <= 0 {
		return nil, fmt.Errorf("preview: frame rate %v must be positive", frameRate)
	}

	total := len(data) / f.FrameSize()
	perFrame := analysis.SamplesPerFrame(f.SampleRate, frameRate)
	start := max(0, (frame-span)*perFrame)
	end := min(total, (frame+span+1)*perFrame)
	if start >= end {
		return nil, fmt.Errorf("preview: frame %d is outside the captured audio", frame)
	}

	src := make([]float64, end-start)
	for i := range src {
		v, err := pcm.Sample(data, start+i, 0, f)
		if err != nil {
			return nil, err
		}
		src[i] = normalize(v, f)
	}

	n := int(float64(len(src)) * PlaybackRate / f.SampleRate)
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		pos := float64(i) * f.SampleRate / PlaybackRate
		j := int(pos)
		v := src[j]
		if j+1 < len(src) {
			frac := pos - float64(j)
			v += (src[j+1] - v) * frac
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(int16(math.Round(v*math.MaxInt16))))
	}
	return out, nil
}

// normalize maps a decoded sample to [-1, 1].
func normalize(v float64, f pcm.Format) float64 {
	lo, hi := pcm.Range(f)
	mid := (float64(lo) + float64(hi) + 1) / 2
	half := (float64(hi) - float64(lo) + 1) / 2
	return max(-1, min(1, (v-mid)/half))
}
