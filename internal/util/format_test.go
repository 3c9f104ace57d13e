package util

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00.000"},
		{1600 * time.Millisecond, "0:01.600"},
		{61*time.Second + 5*time.Millisecond, "1:01.005"},
		{-time.Second, "0:00.000"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFrameDuration(t *testing.T) {
	if got := FrameDuration(40, 25); got != 1600*time.Millisecond {
		t.Fatalf("FrameDuration(40, 25) = %v, want 1.6s", got)
	}
	if got := FrameDuration(30000, 30000.0/1001.0); got != 1001*time.Second {
		t.Fatalf("FrameDuration(30000, 29.97) = %v, want 1001s", got)
	}
	if got := FrameDuration(5, 0); got != 0 {
		t.Fatalf("FrameDuration(5, 0) = %v, want 0", got)
	}
}

func TestTimecode(t *testing.T) {
	tests := []struct {
		frame int
		fps   float64
		want  string
	}{
		{0, 25, "00:00:00:00"},
		{40, 25, "00:00:01:15"},
		{899, 29.97, "00:00:29:29"},
		{90000, 25, "01:00:00:00"},
		{3, 0, "--:--:--:--"},
	}
	for _, tt := range tests {
		if got := Timecode(tt.frame, tt.fps); got != tt.want {
			t.Fatalf("Timecode(%d, %v) = %q, want %q", tt.frame, tt.fps, got, tt.want)
		}
	}
}
