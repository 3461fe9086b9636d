package encoder

import (
	"fmt"
	"strings"
)

// priority is the order formats are reported and resolved in.
var priority = []string{"png", "webp", "avif", "tiff", "bmp", "rgba.zst"}

// Registry holds all available encoders and selects one per format.
type Registry struct {
	encoders map[string]Encoder
}

// NewRegistry creates a registry, probing all encoders for availability.
func NewRegistry() *Registry {
	return newRegistry(
		&PNGEncoder{},
		&WebPEncoder{},
		&AVIFEncoder{},
		&TIFFEncoder{},
		&BMPEncoder{},
		&RawEncoder{},
	)
}

func newRegistry(all ...Encoder) *Registry {
	r := &Registry{
		encoders: make(map[string]Encoder),
	}
	// Only available encoders are kept.
	for _, enc := range all {
		if enc.Available() {
			r.encoders[enc.Format()] = enc
		}
	}
	return r
}

// Get returns an encoder for the given format, or nil if unavailable.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[normalize(format)]
}

// Available returns all available format names.
func (r *Registry) Available() []string {
	var result []string
	for _, f := range priority {
		if _, ok := r.encoders[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// ResolveFormats filters requested formats to those available and able
// to carry the output, and ensures PNG is present as a fallback when
// nothing else remains. Translucent output drops formats without alpha.
func (r *Registry) ResolveFormats(requested []string, hasAlpha bool) []string {
	var resolved []string
	seen := map[string]bool{}

	for _, f := range requested {
		f = normalize(f)
		enc, ok := r.encoders[f]
		if !ok || seen[f] {
			continue
		}
		if hasAlpha && !enc.Alpha() {
			continue
		}
		resolved = append(resolved, f)
		seen[f] = true
	}

	// Ensure we always have at least one output format.
	if len(resolved) == 0 && r.encoders["png"] != nil {
		resolved = append(resolved, "png")
	}

	return resolved
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(avail, ", "))
}

func normalize(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "tif":
		return "tiff"
	case "raw", "rgba", "zst":
		return "rgba.zst"
	}
	return f
}
