package preview

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/olivier-w/syncframe/internal/pcm"
)

func TestCaptureKeepsPrefix(t *testing.T) {
	src := bytes.Repeat([]byte{1, 2, 3, 4}, 10)
	c := NewCapture(bytes.NewReader(src), 6)
	got, err := io.ReadAll(c)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, src) {
		t.Fatal("Capture changed the stream")
	}
	if !bytes.Equal(c.Bytes(), src[:6]) {
		t.Fatalf("Bytes() = %v, want %v", c.Bytes(), src[:6])
	}
}

func TestClipWindowAndScale(t *testing.T) {
	// 48 kHz stereo 24-bit BE, 100 fps so each video frame is 480 samples.
	f := pcm.Format{SampleRate: PlaybackRate, Channels: 2, BitsPerSample: 24, BigEndian: true}
	var data []byte
	for i := 0; i < 480*10; i++ {
		left := int64(0)
		if i/480 == 5 {
			left = 1 << 22 // half scale
		}
		data = pcm.Encode(data, left, f)
		data = pcm.Encode(data, -1<<23, f)
	}

	clip, err := Clip(data, f, 100, 5, 1)
	if err != nil {
		t.Fatalf("Clip() error = %v", err)
	}
	if got, want := len(clip), 3*480*2; got != want {
		t.Fatalf("clip length = %d, want %d", got, want)
	}
	first := int16(binary.LittleEndian.Uint16(clip))
	mid := int16(binary.LittleEndian.Uint16(clip[480*2:]))
	if first != 0 {
		t.Fatalf("first sample = %d, want 0", first)
	}
	if mid < 16380 || mid > 16386 {
		t.Fatalf("burst sample = %d, want about half scale", mid)
	}
}

func TestClipClampsAndResamples(t *testing.T) {
	f := pcm.Format{SampleRate: 8000, Channels: 1, BitsPerSample: 8}
	data := bytes.Repeat([]byte{255}, 800)

	clip, err := Clip(data, f, 10, 0, 3)
	if err != nil {
		t.Fatalf("Clip() error = %v", err)
	}
	// Frames 0..3 exist (800 samples), upsampled 6x.
	if got, want := len(clip), 800*6*2; got != want {
		t.Fatalf("clip length = %d, want %d", got, want)
	}
	if v := int16(binary.LittleEndian.Uint16(clip)); v < 32000 {
		t.Fatalf("unsigned full-scale sample = %d, want near max", v)
	}

	if _, err := Clip(data, f, 10, 50, 1); err == nil {
		t.Fatal("expected error for frame past the capture")
	}
}

func TestClipStartsOnAnalyzedChunk(t *testing.T) {
	// 8000/30 rounds to 267 samples per frame, so frame 30 starts at 8010.
	f := pcm.Format{SampleRate: 8000, Channels: 1, BitsPerSample: 16}
	data := make([]byte, 40*267*2)
	binary.LittleEndian.PutUint16(data[8010*2:], 32767)

	clip, err := Clip(data, f, 30, 30, 0)
	if err != nil {
		t.Fatalf("Clip() error = %v", err)
	}
	if got, want := len(clip), 267*6*2; got != want {
		t.Fatalf("clip length = %d, want %d", got, want)
	}
	if v := int16(binary.LittleEndian.Uint16(clip)); v < 32000 {
		t.Fatalf("first sample = %d, want the chunk's leading marker", v)
	}
}
