package analysis

import "math"

// Method names a sync-frame detection heuristic.
type Method string

const (
	// MethodWindow picks the start of the signal-length window with the
	// highest mean magnitude.
	MethodWindow Method = "window"
	// MethodRun picks the start of the longest run near the peak whose
	// length is plausible for the tone burst.
	MethodRun Method = "run"
	// MethodPeak picks the first frame close to the peak.
	MethodPeak Method = "peak"
)

// Methods lists every detector in reporting order.
var Methods = []Method{MethodWindow, MethodRun, MethodPeak}

// Candidates is a set of video frame indices. Detectors return it sorted and
// without duplicates; an empty set means no detection.
type Candidates []int

// Contains reports whether frame is in c.
func (c Candidates) Contains(frame int) bool {
	for _, f := range c {
		if f == frame {
			return true
		}
	}
	return false
}

// Detector consumes a smoothed magnitude sequence and the expected burst
// length in frames.
type Detector func(m []float64, signalFrames int) Candidates

// DetectorFor returns the detector implementing method, or nil.
func DetectorFor(method Method) Detector {
	switch method {
	case MethodWindow:
		return WindowArgmax
	case MethodRun:
		return PeakRun
	case MethodPeak:
		return func(m []float64, _ int) Candidates { return FirstNearPeak(m) }
	}
	return nil
}

const (
	runThreshold  = 0.8
	runMinFactor  = 0.25
	runMaxFactor  = 1.25
	peakThreshold = 0.9
)

// WindowArgmax returns the start of the window of signalFrames frames with the
// largest mean, preferring the earliest start on ties. Starts range over
// [0, len(m)-signalFrames); a sequence exactly one window long yields 0. It
// returns nothing when the sequence is shorter than one window.
func WindowArgmax(m []float64, signalFrames int) Candidates {
	if signalFrames < 1 || len(m) < signalFrames {
		return nil
	}
	if len(m) == signalFrames {
		return Candidates{0}
	}

	best, bestMean := -1, 0.0
	for s := 0; s < len(m)-signalFrames; s++ {
		var sum float64
		for _, v := range m[s : s+signalFrames] {
			sum += v
		}
		mean := sum / float64(signalFrames)
		if best < 0 || mean > bestMean {
			best, bestMean = s, mean
		}
	}
	return Candidates{best}
}

// PeakRun finds runs of frames at or above 80% of the peak and returns the
// start of the longest one, if its length lies strictly between 25% and 125%
// of signalFrames. Equal-length runs resolve to the earliest.
func PeakRun(m []float64, signalFrames int) Candidates {
	peak := maxOf(m)
	if peak <= 0 {
		return nil
	}
	target := runThreshold * peak

	bestLen, bestStart := 0, 0
	for s := 0; s < len(m); {
		if m[s] < target {
			s++
			continue
		}
		n := 0
		for s+n < len(m) && m[s+n] >= target {
			n++
		}
		if n > bestLen {
			bestLen, bestStart = n, s
		}
		s += n + 1
	}
	if bestLen == 0 {
		return nil
	}

	minLen := int(math.Round(runMinFactor * float64(signalFrames)))
	maxLen := int(math.Round(runMaxFactor * float64(signalFrames)))
	if bestLen <= minLen || bestLen >= maxLen {
		return nil
	}
	return Candidates{bestStart}
}

// FirstNearPeak returns the first frame at or above 90% of the peak. Empty
// and all-zero sequences yield frame 0.
func FirstNearPeak(m []float64) Candidates {
	target := peakThreshold * maxOf(m)
	for i, v := range m {
		if v >= target {
			return Candidates{i}
		}
	}
	return Candidates{0}
}

func maxOf(m []float64) float64 {
	var peak float64
	for i, v := range m {
		if i == 0 || v > peak {
			peak = v
		}
	}
	return peak
}
