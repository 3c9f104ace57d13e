// Package chart draws a tone magnitude sequence as a bar chart with marked
// candidate frames.
package chart

import (
	"slices"
	"strings"
)

var barChars = []rune(" ▁▂▃▄▅▆▇█")

const (
	markSelected = '▲'
	markOther    = '╵'
)

// Chart renders one column per group of frames. Column heights ease toward
// their targets with a spring; call [Chart.Tick] once per animation frame.
type Chart struct {
	values   []float64
	marks    []int
	selected int

	width, height int
	targets       []float64
	springs       springField
}

// New returns a chart animated at fps ticks per second.
func New(fps int) *Chart {
	return &Chart{
		selected: -1,
		width:    60,
		height:   8,
		springs:  newSpringField(fps, 6.0, 0.7),
	}
}

// SetData replaces the plotted sequence.
func (c *Chart) SetData(values []float64) {
	c.values = values
	c.retarget()
}

// SetSize sets the plot area in terminal cells, excluding the marker row.
func (c *Chart) SetSize(width, height int) {
	c.width = max(1, width)
	c.height = max(1, height)
	c.retarget()
}

// Mark sets the candidate frames to flag under the chart. selected is
// drawn distinctly; pass -1 for none.
func (c *Chart) Mark(frames []int, selected int) {
	c.marks = slices.Clone(frames)
	c.selected = selected
}

// Column returns the chart column that frame falls in.
func (c *Chart) Column(frame int) int {
	cols := c.columns()
	if cols == 0 || len(c.values) == 0 {
		return -1
	}
	if frame < 0 || frame >= len(c.values) {
		return -1
	}
	return frame * cols / len(c.values)
}

func (c *Chart) columns() int {
	return min(c.width, len(c.values))
}

// retarget recomputes column heights: each column shows the maximum of its
// frames, scaled so the overall maximum fills the plot height.
func (c *Chart) retarget() {
	cols := c.columns()
	c.targets = make([]float64, cols)
	c.springs.resize(cols)
	if cols == 0 {
		return
	}

	peak := 0.0
	for _, v := range c.values {
		peak = max(peak, v)
	}
	if peak <= 0 {
		return
	}
	for i, v := range c.values {
		col := i * cols / len(c.values)
		c.targets[col] = max(c.targets[col], v/peak*float64(c.height))
	}
}

// Tick advances the animation one step and reports whether any column is
// still moving.
func (c *Chart) Tick() bool {
	moving := false
	for i, t := range c.targets {
		c.springs.step(i, t)
		if c.springs.settled(i, t) {
			c.springs.snap(i, t)
		} else {
			moving = true
		}
	}
	return moving
}

// Settle jumps every column to its target height.
func (c *Chart) Settle() {
	for i, t := range c.targets {
		c.springs.snap(i, t)
	}
}

// View renders the bars and the marker row.
func (c *Chart) View() string {
	cols := c.columns()
	if cols == 0 {
		return ""
	}

	rows := make([]string, 0, c.height+1)
	for row := range c.height {
		var line strings.Builder
		rowFromBottom := float64(c.height - 1 - row)
		for col := range cols {
			level := c.springs.pos[col]
			charIdx := 0
			if level >= rowFromBottom+1 {
				charIdx = len(barChars) - 1
			} else if level > rowFromBottom {
				frac := level - rowFromBottom
				charIdx = int(frac * float64(len(barChars)-1))
			}
			line.WriteRune(barChars[charIdx])
		}
		rows = append(rows, line.String())
	}

	markers := []rune(strings.Repeat(" ", cols))
	for _, f := range c.marks {
		if col := c.Column(f); col >= 0 && markers[col] != markSelected {
			markers[col] = markOther
		}
	}
	if col := c.Column(c.selected); col >= 0 {
		markers[col] = markSelected
	}
	rows = append(rows, string(markers))
	return strings.Join(rows, "\n")
}
