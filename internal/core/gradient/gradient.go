// Package gradient computes the row banding colors of the task and list
// screens by interpolating across an ordered palette.
package gradient

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// MinRows is the row count a gradient spans when a list is shorter, so short
// lists use only the warm end of the palette.
const MinRows = 13

// ErrShortPalette is returned when a palette has fewer than two stops.
var ErrShortPalette = errors.New("palette needs at least two colors")

// Palette is an ordered set of gradient stops.
type Palette []colorful.Color

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

var (
	// TaskColors runs from orange through red and magenta to deep blue.
	TaskColors = Palette{
		rgb(231, 167, 118),
		rgb(228, 125, 114),
		rgb(233, 99, 111),
		rgb(242, 81, 145),
		rgb(154, 80, 164),
		rgb(88, 86, 157),
		rgb(56, 71, 126),
	}

	// ListColors runs through shades of blue.
	ListColors = Palette{
		rgb(6, 147, 251),
		rgb(16, 158, 251),
		rgb(26, 169, 251),
		rgb(33, 180, 251),
		rgb(40, 190, 251),
		rgb(46, 198, 251),
		rgb(54, 207, 251),
	}

	// CompleteDim is the background of completed rows.
	CompleteDim = colorful.Color{R: 0.2, G: 0.2, B: 0.2}
	// CompleteGreen is the overlay shown when a swipe would complete a row.
	CompleteGreen = colorful.Color{R: 0, G: 0.6, B: 0}
	// DeleteRed is the tint behind the delete icon.
	DeleteRed = rgb(231, 80, 65)
)

// ParsePalette parses a list of hex colors such as "#e7a776".
func ParsePalette(hexes []string) (Palette, error) {
	if len(hexes) < 2 {
		return nil, ErrShortPalette
	}
	p := make(Palette, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("parse color %q: %w", h, err)
		}
		p = append(p, c)
	}
	return p, nil
}

// Hexes formats the palette back to hex strings.
func (p Palette) Hexes() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.Hex()
	}
	return out
}

// At returns the color at fraction f of the palette. f is clamped to [0, 1],
// and f = 1 yields the last stop exactly. The palette must hold two or more
// colors; a shorter palette yields its only color or black.
func (p Palette) At(f float64) colorful.Color {
	switch len(p) {
	case 0:
		return colorful.Color{}
	case 1:
		return p[0]
	}

	if math.IsNaN(f) {
		f = 0
	}
	f = math.Max(0, math.Min(1, f))
	if f == 1 {
		return p[len(p)-1]
	}

	stop := 1 / float64(len(p)-1)
	i := int(math.Floor(f / stop))
	if i > len(p)-2 {
		i = len(p) - 2
	}

	residual := (f - float64(i)*stop) / stop
	switch {
	case residual <= 0:
		return p[i]
	case residual >= 1:
		return p[i+1]
	}

	return p[i].BlendRgb(p[i+1], residual)
}

// ForRow returns the color of row in a list of count rows.
func (p Palette) ForRow(row, count int) colorful.Color {
	return p.At(RowFraction(row, count))
}

// RowFraction is row / max(MinRows, count).
func RowFraction(row, count int) float64 {
	return float64(row) / float64(max(MinRows, count))
}
