package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/ditherimg-cli/internal/crunch"
	"github.com/AnyUserName/ditherimg-cli/internal/dither"
	"github.com/AnyUserName/ditherimg-cli/internal/worker"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoded is a source image together with its raw file bytes.
type Decoded struct {
	Image  image.Image
	Format string
	Data   []byte
}

// Decode reads and decodes an image file in any registered format.
func Decode(path string) (*Decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("decode %s: empty image", path)
	}
	return &Decoded{Image: img, Format: format, Data: data}, nil
}

// Plan lays out a render of img at displayWidth CSS pixels. The display
// height follows the source aspect ratio.
func Plan(img image.Image, displayWidth, dpr int, c crunch.Crunch) (crunch.Layout, int, error) {
	b := img.Bounds()
	displayHeight := int(math.Round(float64(b.Dy()) * float64(displayWidth) / float64(b.Dx())))
	if displayHeight < 1 {
		displayHeight = 1
	}
	l, err := crunch.Plan(displayWidth, displayHeight, dpr, c)
	return l, displayHeight, err
}

// PlanScale lays out a render that keeps the source at its own size in
// dither pixels, enlarged by scale.
func PlanScale(img image.Image, scale int) (crunch.Layout, error) {
	if scale <= 0 {
		return crunch.Layout{}, fmt.Errorf("invalid scale %d", scale)
	}
	b := img.Bounds()
	return crunch.Plan(b.Dx(), b.Dy(), scale, crunch.Crunch{Mode: crunch.Fixed, Factor: 1})
}

// Render resamples img to the layout's logical size and dithers it on pool.
func Render(ctx context.Context, pool *worker.Pool, img image.Image, l crunch.Layout, opts dither.Options) (worker.Reply, error) {
	src := img
	if b := img.Bounds(); b.Dx() != l.LogicalWidth || b.Dy() != l.LogicalHeight {
		src = imaging.Resize(img, l.LogicalWidth, l.LogicalHeight, imaging.Linear)
	}

	reply, err := pool.Do(ctx, worker.Request{
		Image:     dither.FromImage(src),
		PixelSize: l.PixelSize,
		Options:   opts,
	})
	if err != nil {
		return worker.Reply{}, fmt.Errorf("dither %dx%d@%d: %w", l.LogicalWidth, l.LogicalHeight, l.PixelSize, err)
	}
	return reply, nil
}
