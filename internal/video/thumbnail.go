package video

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// asciiRamp runs from darkest to brightest.
const asciiRamp = " .:-=+*#%@"

// Thumbnail renders frames as terminal text. In color mode each cell is an
// upper half block carrying two pixel rows; in ASCII mode each cell is one
// pixel mapped to a brightness character.
type Thumbnail struct {
	ASCII bool
}

// Size returns the pixel size to decode a srcW×srcH video at so that it
// fits in cols×rows terminal cells with its aspect ratio kept.
func (t Thumbnail) Size(srcW, srcH, cols, rows int) (w, h int) {
	if srcW <= 0 || srcH <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0
	}
	// Half blocks give square pixels; ASCII cells are about twice as tall
	// as they are wide.
	pixelRows, cellAspect := rows*2, 1
	if t.ASCII {
		pixelRows, cellAspect = rows, 2
	}

	w = cols
	h = w * srcH / (srcW * cellAspect)
	if h > pixelRows {
		h = pixelRows
		w = h * srcW * cellAspect / srcH
	}
	return max(w, 4), max(h, 2)
}

// Render converts f to a string of terminal rows.
func (t Thumbnail) Render(f *Frame) string {
	if f == nil || f.Width <= 0 || f.Height <= 0 || len(f.RGB) < f.Width*f.Height*3 {
		return ""
	}
	var sb strings.Builder
	if t.ASCII {
		for y := 0; y < f.Height; y++ {
			if y > 0 {
				sb.WriteByte('\n')
			}
			for x := 0; x < f.Width; x++ {
				sb.WriteByte(brightnessChar(luminance(f.At(x, y))))
			}
		}
		return sb.String()
	}

	for y := 0; y < f.Height; y += 2 {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < f.Width; x++ {
			style := lipgloss.NewStyle().Foreground(hexColor(f.At(x, y)))
			if y+1 < f.Height {
				style = style.Background(hexColor(f.At(x, y+1)))
			}
			sb.WriteString(style.Render("▀"))
		}
	}
	return sb.String()
}

func hexColor(r, g, b uint8) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
}

// luminance computes perceived brightness (ITU-R BT.601).
func luminance(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}

func brightnessChar(lum uint8) byte {
	return asciiRamp[int(lum)*(len(asciiRamp)-1)/255]
}
