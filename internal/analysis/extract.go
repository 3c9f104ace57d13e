// Package analysis turns a PCM stream into a per-video-frame tone magnitude
// sequence and picks the video frames at which the sync tone most likely
// starts.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/olivier-w/syncframe/internal/pcm"
)

// HorizonSeconds bounds how much audio is analyzed; the sync tone is emitted
// near the start of the recording.
const HorizonSeconds = 30

// ErrToneOutOfRange is returned when the target bin falls outside the
// transform for the given format and frame rate.
var ErrToneOutOfRange = errors.New("analysis: tone frequency outside spectrum")

// Progress is called after each analyzed video frame with the number of
// frames done and the analysis cap.
type Progress func(done, total int)

// Extractor computes one tone magnitude per video frame.
type Extractor struct {
	Format    pcm.Format
	FrameRate float64
	ToneHz    float64
	Progress  Progress
	Logger    *slog.Logger
}

// SamplesPerFrame returns the number of audio sample frames per video frame,
// which is also the transform length.
func SamplesPerFrame(sampleRate, frameRate float64) int {
	return int(math.Round(sampleRate / frameRate))
}

// TargetBin returns the index into the packed (re, im, re, im, ...) spectrum
// at which the tone magnitude is read. The layout is the full complex
// spectrum, so the offset from the textbook bin formula is intentional.
func TargetBin(sampleRate, toneHz float64, samplesPerFrame int) int {
	resolution := sampleRate / float64(samplesPerFrame)
	return samplesPerFrame - int(math.Round(toneHz/resolution+1))
}

// SpectralLine returns the complex bin whose data sits at packed index bin,
// and whether it is that bin's imaginary part.
func SpectralLine(bin int) (line int, imaginary bool) {
	return bin / 2, bin%2 == 1
}

// FrameCap returns the maximum number of video frames analyzed.
func FrameCap(frameRate float64) int {
	return int(math.Round(frameRate * HorizonSeconds))
}

// Extract reads r sequentially in chunks of one video frame and returns the
// tone magnitude of each complete chunk. A trailing partial chunk is dropped.
func (e *Extractor) Extract(ctx context.Context, r io.Reader) ([]float64, error) {
	if err := e.Format.Validate(); err != nil {
		return nil, err
	}
	if e.FrameRate <= 0 {
		return nil, fmt.Errorf("analysis: frame rate %v must be positive", e.FrameRate)
	}

	n := SamplesPerFrame(e.Format.SampleRate, e.FrameRate)
	if n < 1 {
		return nil, fmt.Errorf("analysis: %v Hz audio is too slow for %v fps video", e.Format.SampleRate, e.FrameRate)
	}
	bin := TargetBin(e.Format.SampleRate, e.ToneHz, n)
	if bin < 0 || bin+1 >= 2*n {
		return nil, fmt.Errorf("%w: %v Hz gives bin %d of %d", ErrToneOutOfRange, e.ToneHz, bin, 2*n)
	}
	limit := FrameCap(e.FrameRate)

	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("extracting tone magnitudes",
		"format", e.Format.String(),
		"frame_rate", e.FrameRate,
		"samples_per_frame", n,
		"target_bin", bin,
		"frame_cap", limit,
	)

	fft := fourier.NewCmplxFFT(n)
	chunk := make([]byte, n*e.Format.FrameSize())
	seq := make([]complex128, n)
	coeff := make([]complex128, n)
	mags := make([]float64, 0, limit)

	for len(mags) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(r, chunk); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, fmt.Errorf("analysis: reading frame %d: %w", len(mags), err)
		}
		for i := range seq {
			v, err := pcm.Sample(chunk, i, 0, e.Format)
			if err != nil {
				return nil, fmt.Errorf("analysis: decoding frame %d: %w", len(mags), err)
			}
			seq[i] = complex(v, 0)
		}
		coeff = fft.Coefficients(coeff, seq)

		re, im := packed(coeff, bin), packed(coeff, bin+1)
		mags = append(mags, math.Sqrt(re*re+im*im))

		if e.Progress != nil {
			e.Progress(len(mags), limit)
		}
	}

	logger.Debug("extracted tone magnitudes", "frames", len(mags))
	return mags, nil
}

// packed reads coefficient data as if it were stored interleaved as
// re0, im0, re1, im1, ...
func packed(coeff []complex128, i int) float64 {
	line, imaginary := SpectralLine(i)
	if imaginary {
		return imag(coeff[line])
	}
	return real(coeff[line])
}
