package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/ditherimg-cli/internal/manifest"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for a built output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	m, _, err := manifest.Read(args[0])
	if err != nil {
		return err
	}
	printStats(m)
	return nil
}

func printStats(m *manifest.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Printf("  Profile:          %s\n", m.Profile)
	if m.BuildInfo != nil {
		fmt.Printf("  Workers:          %d\n", m.BuildInfo.Workers)
		fmt.Printf("  Screen:           dpr %.0f, crunch %s\n", m.BuildInfo.DPR, m.BuildInfo.Crunch)
	}
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Total assets:     %d\n", s.TotalAssets)
	fmt.Printf("  Total renders:    %d\n", s.TotalRenders)
	if s.ReusedRenders > 0 {
		fmt.Printf("  Reused renders:   %d\n", s.ReusedRenders)
	}
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Printf("  Ratio:            %.1f%% of original\n", ratio)
	}
	fmt.Println()

	// Per-format breakdown.
	formatStats := map[string]struct {
		count int
		bytes int64
	}{}
	for _, a := range m.Assets {
		for _, r := range a.Renders {
			fs := formatStats[r.Format]
			fs.count++
			fs.bytes += r.Size
			formatStats[r.Format] = fs
		}
	}
	var formats []string
	for f := range formatStats {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	fmt.Println("  Format breakdown:")
	for _, f := range formats {
		fs := formatStats[f]
		fmt.Printf("    %-8s  %4d files  %s\n", f, fs.count, formatBytes(fs.bytes))
	}
	fmt.Println()

	// Per-pixel-size breakdown.
	sizeStats := map[int]int{}
	var darkSum float64
	var renders int
	for _, a := range m.Assets {
		for _, r := range a.Renders {
			sizeStats[r.PixelSize]++
			darkSum += r.DarkRatio
			renders++
		}
	}
	var sizes []int
	for ps := range sizeStats {
		sizes = append(sizes, ps)
	}
	sort.Ints(sizes)
	fmt.Println("  Pixel size breakdown:")
	for _, ps := range sizes {
		fmt.Printf("    %3d×%-3d  %4d renders\n", ps, ps, sizeStats[ps])
	}
	if renders > 0 {
		fmt.Printf("  Mean dark pixels: %.1f%%\n", darkSum/float64(renders)*100)
	}

	// Warnings.
	var warnings []string
	for key, a := range m.Assets {
		if len(a.Renders) == 0 {
			warnings = append(warnings, fmt.Sprintf("asset %q has no renders", key))
		}
		for _, r := range a.Renders {
			if r.DarkRatio == 0 || r.DarkRatio == 1 {
				warnings = append(warnings, fmt.Sprintf("asset %q %s@%d is a single solid color", key, r.Format, r.DisplayWidth))
			}
		}
	}
	sort.Strings(warnings)
	if len(warnings) > 0 {
		fmt.Println()
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
	}
	fmt.Println()
}
