// Package dither renders a pixel buffer as a two-color error-diffused
// approximation, enlarged by an integer pixel size.
//
// The kernel spreads 6/8 of the quantization error over six forward
// neighbours (two on the current row, three on the next, one on the row
// after) and drops the remaining 2/8.
// Error is kept in a three-row sliding window rather than in the image,
// and nothing wraps around the left or right edge.
package dither

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned (wrapped) for malformed buffers or
// out-of-range parameters.
var ErrInvalidInput = errors.New("dither: invalid input")

// Color is a non-premultiplied RGBA output color.
type Color struct {
	R, G, B, A uint8
}

var (
	Black = Color{0, 0, 0, 255}
	White = Color{255, 255, 255, 255}
)

// Options configures a single dither call.
type Options struct {
	// Cutoff is the fraction of full intensity at or below which a pixel
	// is classified dark. Must be within [0, 1].
	Cutoff float64
	Dark   Color
	Light  Color
}

// DefaultOptions returns cutoff 0.5 with black on white.
func DefaultOptions() Options {
	return Options{Cutoff: 0.5, Dark: Black, Light: White}
}

// Stats counts logical pixels by classification.
type Stats struct {
	DarkPixels  int
	LightPixels int
}

// DarkRatio is the fraction of logical pixels classified dark.
func (s Stats) DarkRatio() float64 {
	total := s.DarkPixels + s.LightPixels
	if total == 0 {
		return 0
	}
	return float64(s.DarkPixels) / float64(total)
}

// kernel lists the diffusion targets as (dx, dy). Each receives 1/8 of
// the error.
var kernel = [6][2]int{{1, 0}, {2, 0}, {-1, 1}, {0, 1}, {1, 1}, {0, 2}}

// Luminance reduces an RGB triple to a gray level with fixed 0.3/0.59/0.11
// weights, rounded down.
func Luminance(r, g, b uint8) uint8 {
	return uint8(math.Floor(float64(r)*0.3 + float64(g)*0.59 + float64(b)*0.11))
}

// Dither thresholds in against opts.Cutoff, diffusing the error forward,
// and returns a new buffer of (in.Width*scale) × (in.Height*scale) where
// every logical pixel is a scale×scale block of opts.Dark or opts.Light.
//
// in is only read. Dither holds no state between calls and is safe to
// call from any goroutine as long as in is not written concurrently.
func Dither(in *PixelBuffer, scale int, opts Options) (*PixelBuffer, error) {
	out, _, err := DitherStats(in, scale, opts)
	return out, err
}

// DitherStats is Dither that also reports how many logical pixels were
// classified dark and light.
func DitherStats(in *PixelBuffer, scale int, opts Options) (*PixelBuffer, Stats, error) {
	if err := validate(in, scale, opts); err != nil {
		return nil, Stats{}, err
	}

	width, height := in.Width, in.Height
	out := NewPixelBuffer(width*scale, height*scale)
	threshold := int(math.Floor(opts.Cutoff * 255))
	dark := [4]uint8{opts.Dark.R, opts.Dark.G, opts.Dark.B, opts.Dark.A}
	light := [4]uint8{opts.Light.R, opts.Light.G, opts.Light.B, opts.Light.A}

	var stats Stats
	win := newWindow(width)
	gray := make([]uint8, width)

	for y := 0; y < height; y++ {
		row := in.Data[y*width*4 : (y+1)*width*4]
		for x := range gray {
			i := x * 4
			gray[x] = Luminance(row[i], row[i+1], row[i+2])
		}

		for x := 0; x < width; x++ {
			expected := int(gray[x]) + int(math.Floor(float64(win.rows[0][x])))

			mono := 255
			if expected <= threshold {
				mono = 0
			}

			win.diffuse(x, float32(expected-mono)/8.0)

			rgba := light
			if mono == 0 {
				rgba = dark
				stats.DarkPixels++
			} else {
				stats.LightPixels++
			}
			out.fillBlock(x, y, scale, rgba)
		}

		win.rotate()
	}

	return out, stats, nil
}

func validate(in *PixelBuffer, scale int, opts Options) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if scale <= 0 {
		return fmt.Errorf("%w: scale factor %d", ErrInvalidInput, scale)
	}
	// Output byte count must fit in an int.
	if in.Width > math.MaxInt/4/scale || in.Height > math.MaxInt/4/scale ||
		in.Width*scale > math.MaxInt/4/(in.Height*scale) {
		return fmt.Errorf("%w: output %dx%d at scale %d is too large",
			ErrInvalidInput, in.Width, in.Height, scale)
	}
	if math.IsNaN(opts.Cutoff) || opts.Cutoff < 0 || opts.Cutoff > 1 {
		return fmt.Errorf("%w: cutoff %v outside [0, 1]", ErrInvalidInput, opts.Cutoff)
	}
	return nil
}

// fillBlock writes rgba into the scale×scale block of logical pixel (x, y).
// The first row of the block is filled pixel by pixel and then copied.
func (b *PixelBuffer) fillBlock(x, y, scale int, rgba [4]uint8) {
	stride := b.Width * 4
	start := (y*scale)*stride + x*scale*4
	first := b.Data[start : start+scale*4]
	for i := 0; i < len(first); i += 4 {
		copy(first[i:i+4], rgba[:])
	}
	for sy := 1; sy < scale; sy++ {
		off := start + sy*stride
		copy(b.Data[off:off+scale*4], first)
	}
}
