package encoder

import (
	"image"
)

// Encoder writes a dithered image in one lossless format.
type Encoder interface {
	// Format returns the output format name (e.g. "png", "webp", "rgba.zst").
	Format() string

	// Encode converts the image to bytes. Every encoder is lossless so
	// block edges survive untouched.
	Encode(img image.Image) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// External encoders (cwebp, avifenc) may not be installed.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string

	// Alpha reports whether the format keeps an alpha channel.
	Alpha() bool
}
