// Package pcm decodes individual samples out of raw linear PCM buffers.
package pcm

import (
	"errors"
	"fmt"
)

var (
	// ErrChannelRange is returned when a channel index is not below the
	// format's channel count.
	ErrChannelRange = errors.New("pcm: channel index out of range")
	// ErrShortBuffer is returned when the requested sample lies past the end
	// of the buffer.
	ErrShortBuffer = errors.New("pcm: buffer too short for sample")
	// ErrUnsupportedWidth is returned for bit widths outside 1..64.
	ErrUnsupportedWidth = errors.New("pcm: unsupported bits per sample")
)

// Format describes an interleaved linear PCM stream.
type Format struct {
	SampleRate    float64
	Channels      int
	BitsPerSample int
	BigEndian     bool
}

// BytesPerSample returns the byte stride of one channel sample.
func (f Format) BytesPerSample() int {
	return (f.BitsPerSample + 7) / 8
}

// FrameSize returns the byte stride of one sample frame (all channels).
func (f Format) FrameSize() int {
	return f.BytesPerSample() * f.Channels
}

// Validate reports whether the format can be decoded.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("pcm: sample rate %v must be positive", f.SampleRate)
	}
	if f.Channels < 1 {
		return fmt.Errorf("pcm: channel count %d must be at least 1", f.Channels)
	}
	if f.BitsPerSample < 1 || f.BitsPerSample > 64 {
		return fmt.Errorf("%w: %d", ErrUnsupportedWidth, f.BitsPerSample)
	}
	return nil
}

func (f Format) String() string {
	order := "le"
	if f.BigEndian {
		order = "be"
	}
	return fmt.Sprintf("%gHz %dch %dbit %s", f.SampleRate, f.Channels, f.BitsPerSample, order)
}
