package common

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a linear RGB color with components in [0, 1].
type Color struct {
	R, G, B float64
}

var (
	// White is the default shape color.
	White = Color{1, 1, 1}

	// Black is the dark background preset.
	Black = Color{0, 0, 0}

	// DefaultBackground is the light grey used when no background is configured.
	DefaultBackground = Color{0.95, 0.95, 0.95}
)

// RGB builds a Color from components, clamping each to [0, 1].
//
// Parameters:
//   - r, g, b: color components
//
// Returns:
//   - Color: the clamped color
func RGB(r, g, b float64) Color {
	return Color{Clamp01(r), Clamp01(g), Clamp01(b)}
}

// ParseHexColor parses "#rrggbb" or "rrggbb".
//
// Parameters:
//   - s: the hex string
//
// Returns:
//   - Color: the parsed color
//   - error: error if s is not a 6-digit hex color
func ParseHexColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{
		R: float64((v>>16)&0xff) / 255,
		G: float64((v>>8)&0xff) / 255,
		B: float64(v&0xff) / 255,
	}, nil
}

// Lerp blends c toward o by t.
func (c Color) Lerp(o Color, t float64) Color {
	return Color{Lerp(c.R, o.R, t), Lerp(c.G, o.G, t), Lerp(c.B, o.B, t)}
}

// Scale multiplies every component by f and clamps the result.
func (c Color) Scale(f float64) Color {
	return RGB(c.R*f, c.G*f, c.B*f)
}

// NRGBA converts the color to an 8-bit non-premultiplied color with the given opacity.
func (c Color) NRGBA(opacity float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(Clamp01(c.R)*255 + 0.5),
		G: uint8(Clamp01(c.G)*255 + 0.5),
		B: uint8(Clamp01(c.B)*255 + 0.5),
		A: uint8(Clamp01(opacity)*255 + 0.5),
	}
}

// Hex formats the color as "#rrggbb".
func (c Color) Hex() string {
	n := c.NRGBA(1)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}
