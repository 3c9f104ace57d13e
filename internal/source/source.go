// Package source opens media files as sequential PCM byte streams.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/olivier-w/syncframe/internal/media"
	"github.com/olivier-w/syncframe/internal/pcm"
)

// Options control how sources are opened.
type Options struct {
	// Raw is the format of headerless .pcm/.raw files.
	Raw pcm.Format
	// SampleFormat is the ffmpeg PCM output format for container sources.
	SampleFormat string
	// SampleRate resamples container sources when positive.
	SampleRate int
	Logger     *slog.Logger
}

// Stream is a PCM byte stream and the format needed to decode it.
type Stream struct {
	io.Reader
	Format pcm.Format
	Title  string
	Path   string

	closers []func() error
}

// Close releases the stream's resources. It is safe to call more than once.
func (s *Stream) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// Open returns a PCM stream for path. The caller must close it.
func Open(ctx context.Context, path string, opts Options) (*Stream, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		s   *Stream
		err error
	)
	switch media.KindOf(path) {
	case media.KindNative:
		s, err = openNative(path)
	case media.KindContainer:
		s, err = openFFmpeg(ctx, path, opts)
	case media.KindRaw:
		s, err = openRaw(path, opts.Raw)
	default:
		return nil, fmt.Errorf("unsupported format %s (supported: %s)", filepath.Ext(path), media.SupportedExtsList())
	}
	if err != nil {
		return nil, err
	}
	if err := s.Format.Validate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	s.Path = path
	if s.Title == "" {
		s.Title = ReadTitle(path)
	}
	logger.Info("opened source", "path", path, "format", s.Format.String())
	return s, nil
}

func openRaw(path string, f pcm.Format) (*Stream, error) {
	if f.Channels == 0 || f.BitsPerSample == 0 || f.SampleRate == 0 {
		return nil, fmt.Errorf("raw PCM input %s needs a sample rate, channel count and bit depth", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Stream{Reader: file, Format: f, closers: []func() error{file.Close}}, nil
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
