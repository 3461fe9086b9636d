package manifest

// Manifest is the top-level output of a ditherimg build.
type Manifest struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Profile     string           `json:"profile"`
	BasePath    string           `json:"base_path"`
	BuildInfo   *BuildInfo       `json:"build_info,omitempty"`
	Assets      map[string]Asset `json:"assets"`
	Stats       Stats            `json:"stats"`
}

// BuildInfo captures build-time parameters for diagnostics.
type BuildInfo struct {
	Workers int     `json:"workers"`
	DPR     float64 `json:"dpr"`
	Crunch  string  `json:"crunch"` // "auto", "pixel" or an integer
}

// Asset describes a single source image and all renders made from it.
type Asset struct {
	Original    OriginalInfo `json:"original"`
	SourceHash  string       `json:"source_hash"`  // xxhash64 of the source file
	AspectRatio float64      `json:"aspect_ratio"` // width / height
	Renders     []Render     `json:"renders"`
}

// OriginalInfo holds metadata about the source image.
type OriginalInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// Render is one dithered output of an asset at a display size and format.
type Render struct {
	Format        string  `json:"format"`        // "png", "webp", "tiff", ...
	DisplayWidth  int     `json:"display_width"` // CSS pixels
	DisplayHeight int     `json:"display_height"`
	Width         int     `json:"width"` // output pixels
	Height        int     `json:"height"`
	LogicalWidth  int     `json:"logical_width"` // dither pixels
	LogicalHeight int     `json:"logical_height"`
	PixelSize     int     `json:"pixel_size"`
	Cutoff        float64 `json:"cutoff"`
	Dark          string  `json:"dark"`  // #rrggbb[aa]
	Light         string  `json:"light"` // #rrggbb[aa]
	DarkRatio     float64 `json:"dark_ratio"`
	Size          int64   `json:"size"` // bytes on disk
	Hash          string  `json:"hash"` // first 16 hex chars of xxhash64
	Path          string  `json:"path"` // relative to base_path
}

// Stats aggregates build metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalAssets      int   `json:"total_assets"`
	TotalRenders     int   `json:"total_renders"`
	ReusedRenders    int   `json:"reused_renders,omitempty"` // renders served from an identical earlier one
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1

// FileName is the manifest's name inside an output directory.
const FileName = "ditherimg.manifest.json"
