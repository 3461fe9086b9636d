// Package crunch turns a display size and device pixel ratio into the
// integer pixel size the ditherer works with.
//
// A crunch factor says how many device pixels make up one dither pixel
// along each axis, relative to a CSS pixel. "auto" uses one CSS pixel per
// dither pixel below 3x and two CSS pixels per dither pixel at 3x and up.
// "pixel" maps one dither pixel to one device pixel.
package crunch

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Mode selects how the crunch factor is derived.
type Mode int

const (
	Auto Mode = iota
	Pixel
	Fixed
)

// Crunch is a parsed crunch setting.
type Crunch struct {
	Mode   Mode
	Factor int // only used by Fixed
}

// Parse reads "auto", "pixel" or a positive integer. Anything else falls
// back to Auto.
func Parse(s string) Crunch {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Crunch{Mode: Auto}
	case "pixel":
		return Crunch{Mode: Pixel}
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return Crunch{Mode: Auto}
	}
	return Crunch{Mode: Fixed, Factor: n}
}

func (c Crunch) String() string {
	switch c.Mode {
	case Pixel:
		return "pixel"
	case Fixed:
		return strconv.Itoa(c.Factor)
	default:
		return "auto"
	}
}

// DevicePixelRatio rounds a raw ratio down to a whole number of at least 1.
// Fractional ratios such as 1.5 are not representable as block sizes.
func DevicePixelRatio(raw float64) int {
	if math.IsNaN(raw) || raw < 1 {
		return 1
	}
	if raw > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(raw))
}

// AutoFactor is the crunch factor used by Auto at the given ratio.
func AutoFactor(dpr int) int {
	if dpr < 3 {
		return 1
	}
	return 2
}

// PixelSize returns how many device pixels wide each dither pixel is.
func PixelSize(dpr int, c Crunch) int {
	if dpr < 1 {
		dpr = 1
	}
	switch c.Mode {
	case Pixel:
		return 1
	case Fixed:
		return dpr * c.Factor
	default:
		return dpr * AutoFactor(dpr)
	}
}

// Layout describes the buffers involved in rendering one display size.
type Layout struct {
	// BackingWidth and BackingHeight are the display size in device pixels.
	BackingWidth, BackingHeight int
	// PixelSize is the scale factor handed to the ditherer.
	PixelSize int
	// LogicalWidth and LogicalHeight are the size the source is resampled to.
	LogicalWidth, LogicalHeight int
	// OutputWidth and OutputHeight are LogicalWidth*PixelSize and
	// LogicalHeight*PixelSize. They can be smaller than the backing size
	// by up to PixelSize-1 pixels.
	OutputWidth, OutputHeight int
}

// Plan computes the layout for a displayW × displayH area in CSS pixels.
func Plan(displayW, displayH, dpr int, c Crunch) (Layout, error) {
	if displayW <= 0 || displayH <= 0 {
		return Layout{}, fmt.Errorf("crunch: invalid display size %dx%d", displayW, displayH)
	}
	if dpr < 1 {
		dpr = 1
	}
	ps := PixelSize(dpr, c)
	if displayW > math.MaxInt32/dpr || displayH > math.MaxInt32/dpr {
		return Layout{}, fmt.Errorf("crunch: display %dx%d at %dx is too large", displayW, displayH, dpr)
	}

	l := Layout{
		BackingWidth:  displayW * dpr,
		BackingHeight: displayH * dpr,
		PixelSize:     ps,
	}
	l.LogicalWidth = max(1, l.BackingWidth/ps)
	l.LogicalHeight = max(1, l.BackingHeight/ps)
	l.OutputWidth = l.LogicalWidth * ps
	l.OutputHeight = l.LogicalHeight * ps
	return l, nil
}
