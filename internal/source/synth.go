package source

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/olivier-w/syncframe/internal/analysis"
)

// Synth describes a test recording: silence, a sync tone burst, then silence.
// All lengths are whole video frames so the burst starts on a frame boundary.
type Synth struct {
	SampleRate   int
	FrameRate    float64
	ToneHz       float64
	LeadFrames   int
	SignalFrames int
	TailFrames   int
	// Amplitude is the peak level as a fraction of full scale.
	Amplitude float64
}

// WriteWAV renders s as 16-bit mono WAV. The burst is placed on the spectral
// line the analyzer reads for s.ToneHz at s.FrameRate.
func (s Synth) WriteWAV(w io.WriteSeeker) error {
	if s.SampleRate <= 0 || s.FrameRate <= 0 {
		return fmt.Errorf("synth: sample rate %d and frame rate %v must be positive", s.SampleRate, s.FrameRate)
	}
	if s.SignalFrames < 1 {
		return fmt.Errorf("synth: signal length %d frames must be positive", s.SignalFrames)
	}
	amp := s.Amplitude
	if amp <= 0 || amp > 1 {
		amp = 0.5
	}

	n := analysis.SamplesPerFrame(float64(s.SampleRate), s.FrameRate)
	bin := analysis.TargetBin(float64(s.SampleRate), s.ToneHz, n)
	if bin < 0 || bin+1 >= 2*n {
		return fmt.Errorf("synth: %w", analysis.ErrToneOutOfRange)
	}
	line, imaginary := analysis.SpectralLine(bin)

	total := max(0, s.LeadFrames) + s.SignalFrames + max(0, s.TailFrames)
	data := make([]int, 0, total*n)
	for fr := 0; fr < total; fr++ {
		on := fr >= s.LeadFrames && fr < s.LeadFrames+s.SignalFrames
		for t := 0; t < n; t++ {
			var v float64
			if on {
				phase := 2 * math.Pi * float64(line) * float64(t) / float64(n)
				if imaginary {
					v = math.Sin(phase)
				} else {
					v = math.Cos(phase)
				}
			}
			data = append(data, int(math.Round(v*amp*math.MaxInt16)))
		}
	}

	enc := wav.NewEncoder(w, s.SampleRate, 16, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: s.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("synth: writing samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("synth: finalizing WAV: %w", err)
	}
	return nil
}
