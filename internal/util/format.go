package util

import (
	"fmt"
	"math"
	"time"
)

// FormatDuration formats a duration as m:ss.mmm.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}

// FrameDuration returns the offset of video frame i at the given rate.
func FrameDuration(i int, frameRate float64) time.Duration {
	if frameRate <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(i) / frameRate * float64(time.Second)))
}

// Timecode formats video frame i as HH:MM:SS:FF using the nominal (rounded)
// frame rate, without drop-frame compensation.
func Timecode(i int, frameRate float64) string {
	nominal := int(math.Round(frameRate))
	if nominal <= 0 || i < 0 {
		return "--:--:--:--"
	}
	ff := i % nominal
	sec := i / nominal
	return fmt.Sprintf("%02d:%02d:%02d:%02d", sec/3600, sec/60%60, sec%60, ff)
}
