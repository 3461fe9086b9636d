package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/ditherimg-cli/internal/hasher"
	"github.com/AnyUserName/ditherimg-cli/internal/manifest"
	"github.com/AnyUserName/ditherimg-cli/internal/palette"
)

var validateNoHash bool

var validateCmd = &cobra.Command{
	Use:   "validate <out_dir_or_manifest>",
	Short: "Validate a ditherimg manifest and check referenced files",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateNoHash, "no-hash", false, "skip re-hashing rendered files")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	m, manifestPath, err := manifest.Read(args[0])
	if err != nil {
		return err
	}

	errors := validateManifest(m, filepath.Dir(manifestPath), !validateNoHash)

	if len(errors) == 0 {
		fmt.Println("  ✓ Manifest is valid")
		fmt.Printf("  ✓ %d assets, %d renders — all files present\n", m.Stats.TotalAssets, m.Stats.TotalRenders)
		return nil
	}

	fmt.Printf("  ✗ Manifest has %d error(s):\n", len(errors))
	for _, e := range errors {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errors))
}

func validateManifest(m *manifest.Manifest, baseDir string, checkHash bool) []string {
	var errs []string

	// Check version.
	if m.Version != manifest.SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	for key, asset := range m.Assets {
		if asset.Original.Width <= 0 || asset.Original.Height <= 0 {
			errs = append(errs, fmt.Sprintf("asset %q: invalid original dimensions %dx%d",
				key, asset.Original.Width, asset.Original.Height))
		}
		if asset.SourceHash == "" {
			errs = append(errs, fmt.Sprintf("asset %q: missing source hash", key))
		}
		if asset.AspectRatio <= 0 {
			errs = append(errs, fmt.Sprintf("asset %q: invalid aspect ratio %.4f", key, asset.AspectRatio))
		}
		if len(asset.Renders) == 0 {
			errs = append(errs, fmt.Sprintf("asset %q: no renders", key))
		}

		seen := map[string]bool{}
		for i, r := range asset.Renders {
			errs = append(errs, validateRender(key, i, r, baseDir, checkHash, seen)...)
		}
	}

	// Verify stats consistency.
	assetCount := len(m.Assets)
	renderCount := 0
	for _, a := range m.Assets {
		renderCount += len(a.Renders)
	}
	if m.Stats.TotalAssets != assetCount {
		errs = append(errs, fmt.Sprintf("stats.total_assets mismatch: %d != %d", m.Stats.TotalAssets, assetCount))
	}
	if m.Stats.TotalRenders != renderCount {
		errs = append(errs, fmt.Sprintf("stats.total_renders mismatch: %d != %d", m.Stats.TotalRenders, renderCount))
	}

	return errs
}

func validateRender(key string, i int, r manifest.Render, baseDir string, checkHash bool, seen map[string]bool) []string {
	var errs []string
	where := fmt.Sprintf("asset %q render[%d]", key, i)

	if r.Format == "" {
		errs = append(errs, where+": empty format")
	}
	if r.PixelSize <= 0 || r.LogicalWidth <= 0 || r.LogicalHeight <= 0 {
		errs = append(errs, fmt.Sprintf("%s: invalid layout %dx%d@%d", where, r.LogicalWidth, r.LogicalHeight, r.PixelSize))
	} else if r.Width != r.LogicalWidth*r.PixelSize || r.Height != r.LogicalHeight*r.PixelSize {
		errs = append(errs, fmt.Sprintf("%s: output %dx%d is not %dx%d × %d",
			where, r.Width, r.Height, r.LogicalWidth, r.LogicalHeight, r.PixelSize))
	}
	if r.Cutoff < 0 || r.Cutoff > 1 {
		errs = append(errs, fmt.Sprintf("%s: cutoff %v outside [0, 1]", where, r.Cutoff))
	}
	if _, err := palette.Parse(r.Dark); err != nil {
		errs = append(errs, fmt.Sprintf("%s: dark: %v", where, err))
	}
	if _, err := palette.Parse(r.Light); err != nil {
		errs = append(errs, fmt.Sprintf("%s: light: %v", where, err))
	}
	if r.Hash == "" {
		errs = append(errs, where+": missing hash")
	}
	if r.Path == "" {
		return append(errs, where+": missing path")
	}

	// Check duplicate paths.
	if seen[r.Path] {
		errs = append(errs, fmt.Sprintf("%s: duplicate path %q", where, r.Path))
	}
	seen[r.Path] = true

	fullPath := filepath.Join(baseDir, filepath.FromSlash(r.Path))
	f, err := os.Open(fullPath)
	if err != nil {
		return append(errs, fmt.Sprintf("%s: file not found: %s", where, r.Path))
	}
	defer f.Close()

	info, err := f.Stat()
	if err == nil && r.Size > 0 && info.Size() != r.Size {
		errs = append(errs, fmt.Sprintf("%s: size mismatch: manifest=%d, disk=%d", where, r.Size, info.Size()))
	}
	if checkHash && r.Hash != "" {
		got, err := hasher.ContentHashReader(f, len(r.Hash))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: hash %s: %v", where, r.Path, err))
		} else if got != r.Hash {
			errs = append(errs, fmt.Sprintf("%s: hash mismatch: manifest=%s, disk=%s", where, r.Hash, got))
		}
	}
	return errs
}
