package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AnyUserName/ditherimg-cli/internal/hasher"
	"github.com/AnyUserName/ditherimg-cli/internal/manifest"
	"github.com/AnyUserName/ditherimg-cli/internal/palette"
)

// processResult holds the result of processing a single source image.
type processResult struct {
	key    string
	asset  manifest.Asset
	err    error
	reused int // renders served from the cache
}

// renderCache maps render key + format to an already written render,
// so identical sources or colliding layouts are dithered once.
type renderCache struct {
	mu      sync.Mutex
	entries map[string]manifest.Render
}

func newRenderCache() *renderCache {
	return &renderCache{entries: make(map[string]manifest.Render)}
}

func (c *renderCache) get(key string) (manifest.Render, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	return r, ok
}

func (c *renderCache) put(key string, r manifest.Render) {
	c.mu.Lock()
	c.entries[key] = r
	c.mu.Unlock()
}

// processImage handles a single source image: decode, plan, dither, encode.
func (p *Pipeline) processImage(ctx context.Context, src Source) processResult {
	result := processResult{key: src.Key}
	cfg := p.cfg

	dec, err := Decode(src.AbsPath)
	if err != nil {
		result.err = fmt.Errorf("%s: %w", src.RelPath, err)
		return result
	}

	bounds := dec.Image.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	sourceHash := hasher.ContentHash(dec.Data, 16)

	result.asset = manifest.Asset{
		Original: manifest.OriginalInfo{
			Width:  origW,
			Height: origH,
			Format: src.Format,
			Size:   src.Size,
		},
		SourceHash:  sourceHash,
		AspectRatio: float64(origW) / float64(origH),
	}

	opts := cfg.Options
	hasAlpha := opts.Dark.A != 255 || opts.Light.A != 255
	formats := p.registry.ResolveFormats(cfg.Profile.Formats, hasAlpha)
	dpr := cfg.Profile.PixelRatio()

	// Ensure output subdirectory exists.
	keyDir := filepath.Dir(src.Key)
	if keyDir != "." {
		if err := os.MkdirAll(filepath.Join(cfg.OutputDir, keyDir), 0o755); err != nil {
			result.err = fmt.Errorf("mkdir %s: %w", keyDir, err)
			return result
		}
	}

	// Layouts already listed for this asset. Two display widths can land
	// on the same layout, and the render is listed once.
	listed := make(map[string]bool)

	for _, w := range cfg.Profile.EffectiveWidths(origW) {
		layout, displayH, err := Plan(dec.Image, w, dpr, p.crunch)
		if err != nil {
			result.err = fmt.Errorf("%s: plan %d: %w", src.RelPath, w, err)
			return result
		}

		renderKey := hasher.RenderKey(sourceHash, hasher.RenderParams{
			LogicalWidth:  layout.LogicalWidth,
			LogicalHeight: layout.LogicalHeight,
			PixelSize:     layout.PixelSize,
			Cutoff:        opts.Cutoff,
			Dark:          opts.Dark,
			Light:         opts.Light,
		})

		// Formats still to encode for this layout.
		var pending []string
		for _, format := range formats {
			if listed[renderKey+"/"+format] {
				p.logf("skip: %s@%d %s has the same layout as an earlier width", src.Key, w, format)
				continue
			}
			if r, ok := p.cache.get(renderKey + "/" + format); ok {
				listed[renderKey+"/"+format] = true
				r.DisplayWidth, r.DisplayHeight = w, displayH
				result.asset.Renders = append(result.asset.Renders, r)
				result.reused++
				p.logf("reuse: %s@%d %s -> %s", src.Key, w, format, r.Path)
				continue
			}
			pending = append(pending, format)
		}
		if len(pending) == 0 {
			continue
		}

		reply, err := Render(ctx, p.pool, dec.Image, layout, opts)
		if err != nil {
			result.err = fmt.Errorf("%s: %w", src.RelPath, err)
			return result
		}
		out := reply.Image.Image()

		for _, format := range pending {
			enc := p.registry.Get(format)
			if enc == nil {
				continue
			}

			data, err := enc.Encode(out)
			if err != nil {
				p.logf("warn: encode %s@%dx%d as %s: %v",
					src.Key, layout.OutputWidth, layout.OutputHeight, format, err)
				continue
			}

			// Content hash for filename.
			contentHash := hasher.ContentHash(data, 16)

			// Build filename: key.w.h.hash.ext
			fileName := fmt.Sprintf("%s.%d.%d.%s.%s",
				filepath.Base(src.Key), layout.OutputWidth, layout.OutputHeight, contentHash[:8], enc.Extension())
			relPath := filepath.ToSlash(filepath.Join(keyDir, fileName))

			outPath := filepath.Join(cfg.OutputDir, relPath)
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				result.err = fmt.Errorf("write %s: %w", relPath, err)
				return result
			}

			r := manifest.Render{
				Format:        format,
				DisplayWidth:  w,
				DisplayHeight: displayH,
				Width:         layout.OutputWidth,
				Height:        layout.OutputHeight,
				LogicalWidth:  layout.LogicalWidth,
				LogicalHeight: layout.LogicalHeight,
				PixelSize:     layout.PixelSize,
				Cutoff:        reply.Cutoff,
				Dark:          palette.Format(opts.Dark),
				Light:         palette.Format(opts.Light),
				DarkRatio:     reply.Stats.DarkRatio(),
				Size:          int64(len(data)),
				Hash:          contentHash,
				Path:          relPath,
			}
			p.cache.put(renderKey+"/"+format, r)
			listed[renderKey+"/"+format] = true
			result.asset.Renders = append(result.asset.Renders, r)
		}
	}

	return result
}
