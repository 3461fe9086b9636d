package encoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/AnyUserName/ditherimg-cli/internal/dither"
)

// rawMagic starts every rgba.zst payload before compression.
var rawMagic = [4]byte{'D', 'R', 'G', 'B'}

const rawHeaderLen = 12 // magic + uint32 width + uint32 height

// ErrBadRaw is returned by DecodeRaw for payloads that are not rgba.zst.
var ErrBadRaw = errors.New("encoder: malformed rgba.zst payload")

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		)
		if err != nil {
			panic(err)
		}
		return enc
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(err)
		}
		return dec
	},
}

// RawEncoder stores the pixel buffer as-is (non-premultiplied RGBA, row
// major) behind a 12-byte header, compressed with zstd. It is meant for
// programs that blit the buffer straight to a framebuffer.
type RawEncoder struct{}

func (e *RawEncoder) Format() string    { return "rgba.zst" }
func (e *RawEncoder) Extension() string { return "rgba.zst" }
func (e *RawEncoder) Available() bool   { return true }
func (e *RawEncoder) Alpha() bool       { return true }

func (e *RawEncoder) Encode(img image.Image) ([]byte, error) {
	buf := dither.FromImage(img)

	src := make([]byte, rawHeaderLen, rawHeaderLen+len(buf.Data))
	copy(src, rawMagic[:])
	binary.BigEndian.PutUint32(src[4:], uint32(buf.Width))
	binary.BigEndian.PutUint32(src[8:], uint32(buf.Height))
	src = append(src, buf.Data...)

	enc := zstdEncPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(src, nil)
	zstdEncPool.Put(enc)
	return out, nil
}

// DecodeRaw reverses RawEncoder.Encode.
func DecodeRaw(data []byte) (*dither.PixelBuffer, error) {
	dec := zstdDecPool.Get().(*zstd.Decoder)
	src, err := dec.DecodeAll(data, nil)
	zstdDecPool.Put(dec)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}

	if len(src) < rawHeaderLen || [4]byte(src[:4]) != rawMagic {
		return nil, ErrBadRaw
	}
	buf := &dither.PixelBuffer{
		Width:  int(binary.BigEndian.Uint32(src[4:])),
		Height: int(binary.BigEndian.Uint32(src[8:])),
		Data:   src[rawHeaderLen:],
	}
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRaw, err)
	}
	return buf, nil
}
