package profile

import "github.com/AnyUserName/ditherimg-cli/internal/crunch"

// Profile defines dither render parameters for a target display.
type Profile struct {
	Name    string
	Widths  []int    // display widths in CSS pixels
	DPR     float64  // device pixel ratio of the target screen
	Crunch  string   // "auto", "pixel" or an integer factor
	Cutoff  float64  // dark/light threshold, 0-1
	Dark    string   // color below the cutoff
	Light   string   // color above the cutoff
	Formats []string // output formats in priority order
}

// DefaultName is used when no profile is requested.
const DefaultName = "retina"

// Built-in profiles.
var profiles = map[string]Profile{
	"screen": {
		Name:    "screen",
		Widths:  []int{320, 640, 960},
		DPR:     1,
		Crunch:  "auto",
		Cutoff:  0.5,
		Dark:    "black",
		Light:   "white",
		Formats: []string{"png"},
	},
	"retina": {
		Name:    "retina",
		Widths:  []int{320, 640, 960},
		DPR:     2,
		Crunch:  "auto",
		Cutoff:  0.5,
		Dark:    "black",
		Light:   "white",
		Formats: []string{"png", "webp"},
	},
	"phone": {
		Name:    "phone",
		Widths:  []int{360, 414},
		DPR:     3,
		Crunch:  "auto",
		Cutoff:  0.5,
		Dark:    "black",
		Light:   "white",
		Formats: []string{"png", "webp"},
	},
	"eink": {
		Name:    "eink",
		Widths:  []int{600, 758, 1072},
		DPR:     1,
		Crunch:  "pixel",
		Cutoff:  0.45,
		Dark:    "#222222",
		Light:   "#f2f2ea",
		Formats: []string{"png", "bmp"},
	},
	"archive": {
		Name:    "archive",
		Widths:  []int{640, 1280},
		DPR:     1,
		Crunch:  "1",
		Cutoff:  0.5,
		Dark:    "black",
		Light:   "white",
		Formats: []string{"tiff", "rgba.zst"},
	},
}

// Get returns a profile by name. Falls back to the default if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		p.Widths = append([]int(nil), p.Widths...)
		p.Formats = append([]string(nil), p.Formats...)
		return p
	}
	p := Get(DefaultName)
	p.Name = name // preserve requested name
	return p
}

// Names lists the built-in profile names.
func Names() []string {
	return []string{"screen", "retina", "phone", "eink", "archive"}
}

// PixelRatio is DPR rounded down to a usable integer.
func (p Profile) PixelRatio() int {
	return crunch.DevicePixelRatio(p.DPR)
}

// EffectiveWidths returns the display widths to render for a source of
// the given width. A source is never stretched past its own width in
// logical dither pixels.
func (p Profile) EffectiveWidths(originalWidth int) []int {
	c := crunch.Parse(p.Crunch)
	dpr := p.PixelRatio()
	seen := map[int]bool{}
	var result []int

	for _, w := range p.Widths {
		if w <= 0 || seen[w] {
			continue
		}
		l, err := crunch.Plan(w, 1, dpr, c)
		if err != nil || l.LogicalWidth > originalWidth {
			continue // don't upscale
		}
		seen[w] = true
		result = append(result, w)
	}

	// Fall back to a width that maps the source 1:1 onto dither pixels
	// (for cases where the original is smaller than every target).
	if len(result) == 0 && originalWidth > 0 {
		ps := crunch.PixelSize(dpr, c)
		result = append(result, max(1, originalWidth*ps/dpr))
	}

	return result
}
