package tmximport

import (
	"fmt"
	"strconv"
	"strings"
)

// Vec2 is a 2D vector used for positions, offsets, pivots and polygon points.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. For source rectangles inside an image the
// origin is the image's top-left corner, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default layer tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// ParseColor parses a Tiled color string. Tiled writes colors as "#RRGGBB" or
// "#AARRGGBB"; the leading '#' is optional. An empty string yields ColorWhite.
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return ColorWhite, nil
	}
	if len(s) != 6 && len(s) != 8 {
		return Color{}, fmt.Errorf("tmximport: invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("tmximport: invalid color %q: %w", s, err)
	}
	a := uint64(0xff)
	if len(s) == 8 {
		a = v >> 24 & 0xff
	}
	return Color{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
		A: float64(a) / 255,
	}, nil
}
