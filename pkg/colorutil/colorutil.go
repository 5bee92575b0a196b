// Package colorutil provides shared color utilities for the annotation tools.
package colorutil

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/gogpu/gg"
)

// Colors used by the renderer and the default toolbar state.
var (
	Orange   = color.NRGBA{R: 0xff, G: 0x98, B: 0x00, A: 0xff}
	TextGray = color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	Black    = color.NRGBA{A: 0xff}
	White    = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Palette is the selectable annotation colors, in toolbar order.
var Palette = []string{
	"#ff9800", "#000", "#fff", "#f44336", "#4caf50", "#2196f3", "#e91e63",
	"#ffeb3b", "#00e676", "#00bcd4", "#9c27b0", "#607d8b", "#bdbdbd", "#ffc107",
}

// ParseHex parses "#rgb", "#rgba", "#rrggbb" or "#rrggbbaa"; the leading
// '#' is optional.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3, 4, 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	for _, r := range h {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
		}
	}
	c := gg.Hex(h)
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}, nil
}

// MustParseHex is ParseHex for constants; it panics on malformed input.
func MustParseHex(s string) color.NRGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats c as "#rrggbb", or "#rrggbbaa" when not opaque.
func Hex(c color.NRGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// WithAlpha returns c with its alpha replaced.
func WithAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
