package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/ditherimg-cli/internal/dither"
	"github.com/AnyUserName/ditherimg-cli/internal/palette"
	"github.com/AnyUserName/ditherimg-cli/internal/profile"
)

var (
	version = "0.1.0"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ditherimg",
	Short: "Two-color error-diffusion dithering for crisp retro images",
	Long: `ditherimg — turns photos into hard-edged black/white (or any two-color)
dithered images sized for real screens.

Each dither pixel is enlarged into an exact block of device pixels, so
the pattern stays sharp on high-DPI displays and nothing gets blurred by
smooth scaling.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"ditherimg %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[ditherimg] "+format+"\n", args...)
	}
}

// colorFlags are the --cutoff/--dark/--light flags shared by commands.
type colorFlags struct {
	cutoff float64
	dark   string
	light  string
}

func (f *colorFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.cutoff, "cutoff", -1, "dark/light threshold 0-1 (default from profile, 0.5)")
	cmd.Flags().StringVar(&f.dark, "dark", "", "color for dark pixels (#rrggbb[aa], r,g,b[,a], black, white)")
	cmd.Flags().StringVar(&f.light, "light", "", "color for light pixels")
}

// options merges the flags over the profile into dither options.
func (f *colorFlags) options(cmd *cobra.Command, prof profile.Profile) (dither.Options, error) {
	opts := dither.DefaultOptions()
	if prof.Cutoff > 0 {
		opts.Cutoff = prof.Cutoff
	}
	if cmd.Flags().Changed("cutoff") {
		if f.cutoff < 0 || f.cutoff > 1 {
			return opts, fmt.Errorf("--cutoff %v outside [0, 1]", f.cutoff)
		}
		opts.Cutoff = f.cutoff
	}

	dark, light := prof.Dark, prof.Light
	if f.dark != "" {
		dark = f.dark
	}
	if f.light != "" {
		light = f.light
	}

	var err error
	if dark != "" {
		if opts.Dark, err = palette.Parse(dark); err != nil {
			return opts, fmt.Errorf("--dark: %w", err)
		}
	}
	if light != "" {
		if opts.Light, err = palette.Parse(light); err != nil {
			return opts, fmt.Errorf("--light: %w", err)
		}
	}

	if palette.LowContrast(opts.Dark, opts.Light) {
		fmt.Fprintf(os.Stderr, "[ditherimg] warning: dark %s and light %s are hard to tell apart\n",
			palette.Format(opts.Dark), palette.Format(opts.Light))
	}
	return opts, nil
}
