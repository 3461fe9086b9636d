package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/ditherimg-cli/internal/crunch"
	"github.com/AnyUserName/ditherimg-cli/internal/manifest"
	"github.com/AnyUserName/ditherimg-cli/internal/palette"
	"github.com/AnyUserName/ditherimg-cli/internal/pipeline"
	"github.com/AnyUserName/ditherimg-cli/internal/profile"
)

var (
	buildOutDir  string
	buildProfile string
	buildWorkers int
	buildWidths  []int
	buildDPR     float64
	buildCrunch  string
	buildFormats []string
	buildColors  colorFlags
)

var buildCmd = &cobra.Command{
	Use:   "build <input_dir>",
	Short: "Dither every image in a directory and write a manifest",
	Long: `Scans input directory for images (png, jpg, jpeg, webp, gif, bmp, tiff),
renders a dithered variant for each display width of the profile in every
configured lossless format, and writes a manifest file.

Output filenames are content-addressed: <key>.<w>.<h>.<hash>.ext`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutDir, "out", "o", "./dither_out", "output directory")
	buildCmd.Flags().StringVarP(&buildProfile, "profile", "p", profile.DefaultName,
		"render profile ("+strings.Join(profile.Names(), ", ")+")")
	buildCmd.Flags().IntVarP(&buildWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	buildCmd.Flags().IntSliceVar(&buildWidths, "widths", nil, "display widths in CSS pixels (overrides profile)")
	buildCmd.Flags().Float64Var(&buildDPR, "dpr", 0, "device pixel ratio, rounded down (0 = profile default)")
	buildCmd.Flags().StringVar(&buildCrunch, "crunch", "", "crunch factor: auto, pixel or an integer (default from profile)")
	buildCmd.Flags().StringSliceVar(&buildFormats, "formats", nil, "output formats (overrides profile)")
	buildColors.register(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	inputDir := args[0]
	start := time.Now()

	// Resolve absolute paths.
	absInput, err := filepath.Abs(inputDir)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(buildOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	// Load profile and apply overrides.
	prof := profile.Get(buildProfile)
	if buildWidths != nil {
		prof.Widths = buildWidths
	}
	if buildDPR > 0 {
		prof.DPR = buildDPR
	}
	if buildCrunch != "" {
		prof.Crunch = buildCrunch
	}
	if buildFormats != nil {
		prof.Formats = buildFormats
	}
	opts, err := buildColors.options(cmd, prof)
	if err != nil {
		return err
	}

	logVerbose("input:   %s", absInput)
	logVerbose("output:  %s", absOutput)
	logVerbose("profile: %s (widths=%v, dpr=%d, crunch=%s, formats=%v)",
		prof.Name, prof.Widths, prof.PixelRatio(), crunch.Parse(prof.Crunch), prof.Formats)
	logVerbose("colors:  cutoff=%.2f dark=%s light=%s",
		opts.Cutoff, palette.Format(opts.Dark), palette.Format(opts.Light))

	// Create output dir.
	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// Run pipeline.
	p := pipeline.New(pipeline.Config{
		InputDir:  absInput,
		OutputDir: absOutput,
		Profile:   prof,
		Options:   opts,
		Workers:   buildWorkers,
		Verbose:   verbose,
	})

	m, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	// Write manifest.
	manifestPath := filepath.Join(absOutput, manifest.FileName)
	if err := manifest.WriteJSON(m, manifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	printBuildReport(m, time.Since(start))
	return nil
}

func printBuildReport(m *manifest.Manifest, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║            ditherimg build complete              ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	stats := m.Stats
	fmt.Printf("  Assets:      %d\n", stats.TotalAssets)
	fmt.Printf("  Renders:     %d\n", stats.TotalRenders)
	if stats.ReusedRenders > 0 {
		fmt.Printf("  Reused:      %d renders (identical parameters)\n", stats.ReusedRenders)
	}
	fmt.Printf("  Input size:  %s\n", formatBytes(stats.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(stats.TotalOutputBytes))
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	if m.BuildInfo != nil {
		fmt.Printf("  Workers:     %d  (dpr %.0f, crunch %s)\n",
			m.BuildInfo.Workers, m.BuildInfo.DPR, m.BuildInfo.Crunch)
	}
	fmt.Println()

	// Top 10 darkest assets.
	if len(m.Assets) > 0 {
		type assetDark struct {
			key   string
			ratio float64
			size  int64
		}
		var items []assetDark
		for key, a := range m.Assets {
			var ratio float64
			var outSum int64
			for _, r := range a.Renders {
				ratio += r.DarkRatio
				outSum += r.Size
			}
			if len(a.Renders) > 0 {
				ratio /= float64(len(a.Renders))
			}
			items = append(items, assetDark{key, ratio, outSum})
		}
		sort.Slice(items, func(i, j int) bool {
			if items[i].ratio != items[j].ratio {
				return items[i].ratio > items[j].ratio
			}
			return items[i].key < items[j].key
		})
		n := len(items)
		if n > 10 {
			n = 10
		}
		fmt.Printf("  Top %d darkest (dark pixels, output size):\n", n)
		for _, it := range items[:n] {
			fmt.Printf("    %-40s %5.1f%%  %8s\n",
				truncKey(it.key, 40), it.ratio*100, formatBytes(it.size))
		}
		fmt.Println()
	}

	fmts := detectOutputFormats(m)
	fmt.Printf("  Formats:     %s\n", strings.Join(fmts, ", "))
	fmt.Println()

	data, _ := json.Marshal(m)
	fmt.Printf("  Manifest:    %s (%s)\n", manifest.FileName, formatBytes(int64(len(data))))
	fmt.Println()
}

func detectOutputFormats(m *manifest.Manifest) []string {
	set := map[string]bool{}
	for _, a := range m.Assets {
		for _, r := range a.Renders {
			set[r.Format] = true
		}
	}
	var out []string
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
