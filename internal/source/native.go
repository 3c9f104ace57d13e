package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"

	"github.com/olivier-w/syncframe/internal/pcm"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// openNative decodes .wav, .flac, .mp3 and .ogg files in-process.
func openNative(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var s *Stream
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		s, err = newWAVStream(f)
	case ".flac":
		s, err = newFLACStream(f)
	case ".mp3":
		s, err = newMP3Stream(f)
	case ".ogg":
		s, err = newOGGStream(f)
	default:
		err = fmt.Errorf("unsupported format: %s", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closers = append([]func() error{f.Close}, s.closers...)
	return s, nil
}

// --- WAV ---

// newWAVStream passes the PCM chunk through untouched: little-endian at the
// file's own bit depth, with 8-bit data left unsigned.
func newWAVStream(f *os.File) (*Stream, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("unsupported WAV encoding %d (integer PCM only)", dec.WavAudioFormat)
	}

	return &Stream{
		Reader: io.LimitReader(f, dec.PCMLen()),
		Format: pcm.Format{
			SampleRate:    float64(dec.SampleRate),
			Channels:      int(dec.NumChans),
			BitsPerSample: int(dec.BitDepth),
		},
	}, nil
}

// --- FLAC ---

// flacReader re-serializes decoded FLAC frames as interleaved big-endian
// samples at the stream's native bit depth.
type flacReader struct {
	stream *flac.Stream
	format pcm.Format
	buf    []byte
}

func newFLACStream(f *os.File) (*Stream, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	r := &flacReader{
		stream: stream,
		format: pcm.Format{
			SampleRate:    float64(info.SampleRate),
			Channels:      int(info.NChannels),
			BitsPerSample: int(info.BitsPerSample),
			BigEndian:     true,
		},
	}
	// stream.Close would close f, which openNative already owns.
	return &Stream{Reader: r, Format: r.format}, nil
}

func (r *flacReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		frame, err := r.stream.ParseNext()
		if err != nil {
			return 0, err
		}
		nSamples := int(frame.Subframes[0].NSamples)
		raw := make([]byte, 0, nSamples*r.format.FrameSize())
		for i := 0; i < nSamples; i++ {
			for ch := 0; ch < r.format.Channels; ch++ {
				raw = pcm.Encode(raw, int64(frame.Subframes[ch].Samples[i]), r.format)
			}
		}
		r.buf = raw
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// --- MP3 ---

func newMP3Stream(f *os.File) (*Stream, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	// go-mp3 always produces 16-bit little-endian stereo.
	return &Stream{
		Reader: dec,
		Format: pcm.Format{SampleRate: float64(dec.SampleRate()), Channels: 2, BitsPerSample: 16},
	}, nil
}

// --- OGG Vorbis ---

// floatReader yields interleaved float samples in [-1, 1].
type floatReader interface {
	Read(p []float32) (int, error)
}

// oggReader converts decoded Vorbis floats to 16-bit little-endian PCM,
// clamping out-of-range values.
type oggReader struct {
	reader  floatReader
	samples []float32
	buf     []byte
}

func newOGGStream(f *os.File) (*Stream, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	return &Stream{
		Reader: &oggReader{reader: reader, samples: make([]float32, 4096)},
		Format: pcm.Format{
			SampleRate:    float64(reader.SampleRate()),
			Channels:      reader.Channels(),
			BitsPerSample: 16,
		},
	}, nil
}

func (r *oggReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		n, err := r.reader.Read(r.samples)
		if n == 0 {
			if err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		raw := make([]byte, n*2)
		for i, s := range r.samples[:n] {
			s = max(-1, min(1, s))
			binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(s*32767)))
		}
		r.buf = raw
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
