package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/olivier-w/syncframe/internal/analysis"
	"github.com/olivier-w/syncframe/internal/util"
)

// candidateRef is one distinct frame proposed by one or more detectors.
type candidateRef struct {
	frame   int
	methods []analysis.Method
}

// candidateList groups the detector candidates of res by frame. The
// consensus frame comes first, the rest in frame order.
func candidateList(res *analysis.Result) []candidateRef {
	if res == nil {
		return nil
	}
	byFrame := make(map[int][]analysis.Method)
	for _, m := range analysis.Methods {
		for _, f := range res.Candidates[m] {
			byFrame[f] = append(byFrame[f], m)
		}
	}
	frames := make([]int, 0, len(byFrame))
	for f := range byFrame {
		frames = append(frames, f)
	}
	slices.Sort(frames)
	if c, ok := res.Consensus(); ok {
		i := slices.Index(frames, c)
		frames = append(append([]int{c}, frames[:i]...), frames[i+1:]...)
	}

	refs := make([]candidateRef, len(frames))
	for i, f := range frames {
		refs[i] = candidateRef{frame: f, methods: byFrame[f]}
	}
	return refs
}

func candidateFrames(refs []candidateRef) []int {
	frames := make([]int, len(refs))
	for i, r := range refs {
		frames[i] = r.frame
	}
	return frames
}

func renderCandidate(ref candidateRef, frameRate float64, selected bool) string {
	names := make([]string, len(ref.methods))
	for i, m := range ref.methods {
		names[i] = string(m)
	}
	label := fmt.Sprintf("frame %d", ref.frame)
	detail := fmt.Sprintf("  %s  %s  %s",
		util.Timecode(ref.frame, frameRate),
		util.FormatDuration(util.FrameDuration(ref.frame, frameRate)),
		strings.Join(names, " "))
	if selected {
		return selectedStyle.Render("▸ "+label) + timeStyle.Render(detail)
	}
	return statusStyle.Render("  "+label) + timeStyle.Render(detail)
}

func indentBlock(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
