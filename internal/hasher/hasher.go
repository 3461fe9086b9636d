package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/AnyUserName/ditherimg-cli/internal/dither"
)

// ContentHash computes the xxHash64 of data and returns a hex string
// truncated to the given length. Content-addressed filenames use 16 hex
// chars (64 bits).
func ContentHash(data []byte, hexLen int) string {
	return format(xxhash.Sum64(data), hexLen)
}

// ContentHashReader computes xxHash64 from a reader, streaming.
func ContentHashReader(r io.Reader, hexLen int) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return format(h.Sum64(), hexLen), nil
}

// RenderParams are the inputs that fully determine a dithered output
// for a given source file.
type RenderParams struct {
	LogicalWidth  int
	LogicalHeight int
	PixelSize     int
	Cutoff        float64
	Dark          dither.Color
	Light         dither.Color
}

// RenderKey identifies one render of a source: equal keys mean
// byte-identical pixel output, so the render can be reused.
func RenderKey(sourceHash string, p RenderParams) string {
	h := xxhash.New()
	h.WriteString(sourceHash)

	var b [8 + 3*8 + 8]byte
	binary.BigEndian.PutUint64(b[0:], uint64(p.LogicalWidth))
	binary.BigEndian.PutUint64(b[8:], uint64(p.LogicalHeight))
	binary.BigEndian.PutUint64(b[16:], uint64(p.PixelSize))
	binary.BigEndian.PutUint64(b[24:], math.Float64bits(p.Cutoff))
	copy(b[32:], []byte{
		p.Dark.R, p.Dark.G, p.Dark.B, p.Dark.A,
		p.Light.R, p.Light.G, p.Light.B, p.Light.A,
	})
	h.Write(b[:])

	return format(h.Sum64(), 16)
}

func format(sum uint64, hexLen int) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], sum)
	full := hex.EncodeToString(b[:])
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
