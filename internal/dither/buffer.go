package dither

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// PixelBuffer is a row-major grid of non-premultiplied RGBA pixels,
// 4 bytes per pixel. Its layout matches image.NRGBA with a tight stride.
type PixelBuffer struct {
	Width  int
	Height int
	Data   []uint8
}

// NewPixelBuffer allocates a zeroed buffer of the given size.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Data:   make([]uint8, width*height*4),
	}
}

// Validate reports whether the buffer dimensions and length agree.
func (b *PixelBuffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil pixel buffer", ErrInvalidInput)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidInput, b.Width, b.Height)
	}
	if want := b.Width * b.Height * 4; len(b.Data) != want || want/4/b.Width != b.Height {
		return fmt.Errorf("%w: data length %d, want %d for %dx%d",
			ErrInvalidInput, len(b.Data), b.Width*b.Height*4, b.Width, b.Height)
	}
	return nil
}

// At returns the color at (x, y).
func (b *PixelBuffer) At(x, y int) Color {
	i := (y*b.Width + x) * 4
	return Color{R: b.Data[i], G: b.Data[i+1], B: b.Data[i+2], A: b.Data[i+3]}
}

// Image wraps the buffer as an *image.NRGBA without copying.
func (b *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Data,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// FromImage copies img into a new PixelBuffer. Tightly packed NRGBA
// images at the origin are copied directly; everything else goes
// through draw.Draw so any color model is converted.
func FromImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := NewPixelBuffer(w, h)

	if n, ok := img.(*image.NRGBA); ok && n.Stride == w*4 && bounds.Min == (image.Point{}) {
		copy(buf.Data, n.Pix)
		return buf
	}

	draw.Draw(buf.Image(), buf.Image().Bounds(), img, bounds.Min, draw.Src)
	return buf
}
