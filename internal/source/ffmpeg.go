package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olivier-w/syncframe/internal/pcm"
)

// DefaultSampleFormat is the ffmpeg PCM format used when none is configured.
const DefaultSampleFormat = "s16le"

// sampleFormats maps ffmpeg raw PCM muxer names to their layout. Sample rate
// and channel count are filled in from the probe.
var sampleFormats = map[string]pcm.Format{
	"u8":    {BitsPerSample: 8},
	"s16le": {BitsPerSample: 16},
	"s16be": {BitsPerSample: 16, BigEndian: true},
	"s24le": {BitsPerSample: 24},
	"s24be": {BitsPerSample: 24, BigEndian: true},
	"s32le": {BitsPerSample: 32},
	"s32be": {BitsPerSample: 32, BigEndian: true},
}

// SampleFormats returns the supported ffmpeg sample format names, sorted.
func SampleFormats() []string {
	names := make([]string, 0, len(sampleFormats))
	for name := range sampleFormats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSampleFormat reports whether name is a supported ffmpeg sample format.
func IsSampleFormat(name string) bool {
	_, ok := sampleFormats[name]
	return ok
}

var errFFmpegNotFound = errors.New("ffmpeg not found (required for video and AAC sources)")

// Process seams, replaced in tests.
var (
	lookPath      = exec.LookPath
	ffprobeOutput = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = nil
		return cmd.Output()
	}
	startFFmpeg = func(ctx context.Context, name string, args ...string) (io.ReadCloser, func() error, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = nil
		stderr := &tailBuffer{max: maxStderr}
		cmd.Stderr = stderr
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, nil, fmt.Errorf("setting up ffmpeg stdout: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, nil, fmt.Errorf("starting ffmpeg: %w", err)
		}
		wait := func() error {
			if err := cmd.Wait(); err != nil {
				return fmt.Errorf("%w%s", err, formatStderr(stderr.Bytes()))
			}
			return nil
		}
		return stdout, wait, nil
	}
)

// maxStderr bounds how much ffmpeg diagnostic output is kept for errors.
const maxStderr = 4 << 10

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) Bytes() []byte { return b.buf }

func formatStderr(stderr []byte) string {
	stderr = bytes.TrimSpace(stderr)
	if len(stderr) == 0 {
		return ""
	}
	return fmt.Sprintf(" (ffmpeg stderr: %s)", stderr)
}

// ffmpegProcess reaps an ffmpeg subprocess exactly once.
type ffmpegProcess struct {
	ctx  context.Context
	wait func() error
	once sync.Once
	err  error
}

func (p *ffmpegProcess) reap() error {
	p.once.Do(func() { p.err = p.wait() })
	return p.err
}

// ffmpegReader reports a failed decode at end of stream instead of a clean
// EOF. A process stopped through its context ends silently.
type ffmpegReader struct {
	r    io.Reader
	proc *ffmpegProcess
}

func (r *ffmpegReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if errors.Is(err, io.EOF) {
		if werr := r.proc.reap(); werr != nil && r.proc.ctx.Err() == nil {
			return n, fmt.Errorf("ffmpeg: %w", werr)
		}
	}
	return n, err
}

// ffprobeResult holds parsed ffprobe JSON output.
type ffprobeResult struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Tags     struct {
			Title string `json:"title"`
		} `json:"tags"`
	} `json:"format"`
}

// AudioProbe is the first audio stream of a media file.
type AudioProbe struct {
	SampleRate int
	Channels   int
	Duration   time.Duration
	Title      string
}

// ProbeAudio uses ffprobe to get audio stream metadata.
func ProbeAudio(ctx context.Context, path string) (AudioProbe, error) {
	ffprobe, err := lookPath("ffprobe")
	if err != nil {
		return AudioProbe{}, fmt.Errorf("ffprobe not found")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	output, err := ffprobeOutput(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"-select_streams", "a:0",
		path,
	)
	if err != nil {
		return AudioProbe{}, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseAudioProbe(output)
}

func parseAudioProbe(output []byte) (AudioProbe, error) {
	var result ffprobeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return AudioProbe{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	if len(result.Streams) == 0 {
		return AudioProbe{}, fmt.Errorf("no audio stream found")
	}

	stream := result.Streams[0]
	sr, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sr <= 0 {
		return AudioProbe{}, fmt.Errorf("audio stream has no usable sample rate %q", stream.SampleRate)
	}
	channels := stream.Channels
	if channels <= 0 {
		channels = 2
	}

	durSec, _ := strconv.ParseFloat(result.Format.Duration, 64)
	return AudioProbe{
		SampleRate: sr,
		Channels:   channels,
		Duration:   time.Duration(durSec * float64(time.Second)),
		Title:      strings.TrimSpace(result.Format.Tags.Title),
	}, nil
}

// ffmpegArgs builds the command line that writes the first audio stream of
// path to stdout as raw PCM.
func ffmpegArgs(path, sampleFormat string, sampleRate int) []string {
	args := []string{
		"-v", "error",
		"-i", path,
		"-vn",
		"-map", "0:a:0",
		"-f", sampleFormat,
		"-acodec", "pcm_" + sampleFormat,
	}
	if sampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(sampleRate))
	}
	return append(args, "pipe:1")
}

// openFFmpeg demuxes and decodes the first audio stream of a container file
// through an ffmpeg subprocess. Closing the stream stops the process.
func openFFmpeg(ctx context.Context, path string, opts Options) (*Stream, error) {
	sampleFormat := opts.SampleFormat
	if sampleFormat == "" {
		sampleFormat = DefaultSampleFormat
	}
	layout, ok := sampleFormats[sampleFormat]
	if !ok {
		return nil, fmt.Errorf("unsupported sample format %q (supported: %s)", sampleFormat, strings.Join(SampleFormats(), ", "))
	}

	probe, err := ProbeAudio(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}

	ffmpeg, err := lookPath("ffmpeg")
	if err != nil {
		return nil, errFFmpegNotFound
	}

	rate := probe.SampleRate
	if opts.SampleRate > 0 {
		rate = opts.SampleRate
	}
	layout.SampleRate = float64(rate)
	layout.Channels = probe.Channels

	ctx, cancel := context.WithCancel(ctx)
	stdout, wait, err := startFFmpeg(ctx, ffmpeg, ffmpegArgs(path, sampleFormat, opts.SampleRate)...)
	if err != nil {
		cancel()
		return nil, err
	}

	proc := &ffmpegProcess{ctx: ctx, wait: wait}
	stop := func() error {
		cancel()
		proc.reap()
		return nil
	}
	return &Stream{
		Reader:  &ffmpegReader{r: stdout, proc: proc},
		Format:  layout,
		Title:   probe.Title,
		closers: []func() error{stop},
	}, nil
}
