package encoder

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
)

// Atomic counter for unique temp file names across goroutines.
var tempCounter atomic.Int64

// external runs a command-line encoder that reads a PNG file and writes
// its own format.
type external struct {
	once      sync.Once
	available bool
	path      string
}

func (x *external) lookup(bin string) bool {
	x.once.Do(func() {
		path, err := exec.LookPath(bin)
		if err == nil {
			x.available = true
			x.path = path
		}
	})
	return x.available
}

// run writes img to a temp PNG, calls args(src, dst) and returns dst.
func (x *external) run(img image.Image, name, ext string, args func(src, dst string) []string) ([]byte, error) {
	id := tempCounter.Add(1)
	srcFile, err := os.CreateTemp("", fmt.Sprintf("ditherimg_%s_src_%d_*.png", name, id))
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	srcPath := srcFile.Name()
	defer os.Remove(srcPath)

	dstFile, err := os.CreateTemp("", fmt.Sprintf("ditherimg_%s_dst_%d_*.%s", name, id, ext))
	if err != nil {
		srcFile.Close()
		return nil, fmt.Errorf("create temp: %w", err)
	}
	dstPath := dstFile.Name()
	dstFile.Close()
	defer os.Remove(dstPath)

	if err := png.Encode(srcFile, img); err != nil {
		srcFile.Close()
		return nil, fmt.Errorf("encode temp png: %w", err)
	}
	if err := srcFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp png: %w", err)
	}

	cmd := exec.Command(x.path, args(srcPath, dstPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, string(out))
	}

	return os.ReadFile(dstPath)
}

// WebPEncoder encodes lossless WebP by shelling out to cwebp.
// This approach avoids CGO while still producing optimized WebP.
// Install: brew install webp / apt install webp
type WebPEncoder struct {
	external
}

func (e *WebPEncoder) Format() string    { return "webp" }
func (e *WebPEncoder) Extension() string { return "webp" }
func (e *WebPEncoder) Available() bool   { return e.lookup("cwebp") }
func (e *WebPEncoder) Alpha() bool       { return true }

func (e *WebPEncoder) Encode(img image.Image) ([]byte, error) {
	if !e.Available() {
		return nil, fmt.Errorf("cwebp not found in PATH; install with: brew install webp")
	}
	return e.run(img, "cwebp", "webp", func(src, dst string) []string {
		return []string{
			"-lossless",
			"-exact", // keep RGB under transparent pixels
			"-z", "9",
			"-mt",
			"-quiet",
			src,
			"-o", dst,
		}
	})
}

// AVIFEncoder encodes lossless AVIF by shelling out to avifenc.
// Install: brew install libavif / apt install libavif-bin
type AVIFEncoder struct {
	external
}

func (e *AVIFEncoder) Format() string    { return "avif" }
func (e *AVIFEncoder) Extension() string { return "avif" }
func (e *AVIFEncoder) Available() bool   { return e.lookup("avifenc") }
func (e *AVIFEncoder) Alpha() bool       { return true }

func (e *AVIFEncoder) Encode(img image.Image) ([]byte, error) {
	if !e.Available() {
		return nil, fmt.Errorf("avifenc not found in PATH; install with: brew install libavif")
	}
	return e.run(img, "avifenc", "avif", func(src, dst string) []string {
		return []string{
			"--lossless",
			"--speed", "6", // 0=slowest, 10=fastest
			"-j", "all",
			src,
			dst,
		}
	})
}
