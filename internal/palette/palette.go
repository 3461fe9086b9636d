// Package palette parses and formats the two output colors.
package palette

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/AnyUserName/ditherimg-cli/internal/dither"
)

// MinDistance is the CIE Lab distance below which a dark/light pair is
// reported as hard to tell apart.
const MinDistance = 0.15

var named = map[string]dither.Color{
	"black":       dither.Black,
	"white":       dither.White,
	"transparent": {},
}

// Parse reads a color as "#rgb", "#rrggbb", "#rrggbbaa", "r,g,b",
// "r,g,b,a" or one of the names black, white and transparent. The
// leading '#' is optional. Colors without alpha are opaque.
func Parse(s string) (dither.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := named[s]; ok {
		return c, nil
	}
	if strings.Contains(s, ",") {
		return parseList(s)
	}

	hex := strings.TrimPrefix(s, "#")
	alpha := uint8(255)
	if len(hex) == 8 {
		a, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return dither.Color{}, fmt.Errorf("parse color %q: bad alpha", s)
		}
		alpha = uint8(a)
		hex = hex[:6]
	}
	if len(hex) != 3 && len(hex) != 6 {
		return dither.Color{}, fmt.Errorf("parse color %q: want 3, 6 or 8 hex digits", s)
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return dither.Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return dither.Color{R: r, G: g, B: b, A: alpha}, nil
}

func parseList(s string) (dither.Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return dither.Color{}, fmt.Errorf("parse color %q: want 3 or 4 components", s)
	}
	v := [4]uint8{3: 255}
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return dither.Color{}, fmt.Errorf("parse color %q: component %d: %w", s, i, err)
		}
		v[i] = uint8(n)
	}
	return dither.Color{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}

// Format renders c as "#rrggbb", or "#rrggbbaa" when it is not opaque.
func Format(c dither.Color) string {
	hex := toColorful(c).Hex()
	if c.A != 255 {
		hex += fmt.Sprintf("%02x", c.A)
	}
	return hex
}

// Distance is the CIE Lab distance between the RGB parts of a and b.
func Distance(a, b dither.Color) float64 {
	return toColorful(a).DistanceLab(toColorful(b))
}

// LowContrast reports whether dark and light are closer than MinDistance.
func LowContrast(dark, light dither.Color) bool {
	return Distance(dark, light) < MinDistance
}

func toColorful(c dither.Color) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}
