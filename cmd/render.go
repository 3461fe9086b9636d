package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/ditherimg-cli/internal/crunch"
	"github.com/AnyUserName/ditherimg-cli/internal/dither"
	"github.com/AnyUserName/ditherimg-cli/internal/encoder"
	"github.com/AnyUserName/ditherimg-cli/internal/pipeline"
	"github.com/AnyUserName/ditherimg-cli/internal/profile"
	"github.com/AnyUserName/ditherimg-cli/internal/worker"
)

// renderFlags configure a single-image render.
type renderFlags struct {
	out     string
	width   int
	scale   int
	dpr     float64
	crunch  string
	format  string
	profile string
	colors  colorFlags
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file (format from extension unless --format)")
	cmd.Flags().IntVar(&f.width, "width", 0, "display width in CSS pixels (0 = source width at --scale)")
	cmd.Flags().IntVar(&f.scale, "scale", 1, "pixel size when --width is not set")
	cmd.Flags().Float64Var(&f.dpr, "dpr", 1, "device pixel ratio for --width, rounded down")
	cmd.Flags().StringVar(&f.crunch, "crunch", "auto", "crunch factor for --width: auto, pixel or an integer")
	cmd.Flags().StringVar(&f.format, "format", "", "output format (png, webp, avif, tiff, bmp, rgba.zst)")
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "take cutoff and colors from a profile")
	f.colors.register(cmd)
	_ = cmd.MarkFlagRequired("out")
}

// renderJob is a resolved single-image render.
type renderJob struct {
	in, out string
	enc     encoder.Encoder
	opts    dither.Options
	flags   *renderFlags

	// publish serializes the current-check and rename of concurrent runs.
	publish sync.Mutex
}

// renderResult is what one run of a renderJob produced.
type renderResult struct {
	reply   worker.Reply
	layout  crunch.Layout
	written bool
}

func (f *renderFlags) resolve(cmd *cobra.Command, in string) (*renderJob, error) {
	var prof profile.Profile
	if f.profile != "" {
		prof = profile.Get(f.profile)
	}
	opts, err := f.colors.options(cmd, prof)
	if err != nil {
		return nil, err
	}

	format := f.format
	if format == "" {
		format = formatFromPath(f.out)
	}
	enc := encoder.NewRegistry().Get(format)
	if enc == nil {
		return nil, fmt.Errorf("no encoder available for format %q", format)
	}
	if (opts.Dark.A != 255 || opts.Light.A != 255) && !enc.Alpha() {
		return nil, fmt.Errorf("format %s cannot store translucent colors", enc.Format())
	}
	if f.width < 0 {
		return nil, fmt.Errorf("--width %d must not be negative", f.width)
	}
	if f.width == 0 && f.scale <= 0 {
		return nil, fmt.Errorf("--scale %d must be positive", f.scale)
	}
	return &renderJob{in: in, out: f.out, enc: enc, opts: opts, flags: f}, nil
}

func formatFromPath(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(base, ".rgba.zst") {
		return "rgba.zst"
	}
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	switch ext {
	case "tif":
		return "tiff"
	case "":
		return "png"
	}
	return ext
}

// run renders the job on pool. The output goes to a temporary file next
// to j.out and replaces it only if ok reports true at that moment. A nil
// ok always publishes.
func (j *renderJob) run(ctx context.Context, pool *worker.Pool, ok func() bool) (renderResult, error) {
	var res renderResult
	dec, err := pipeline.Decode(j.in)
	if err != nil {
		return res, err
	}

	if j.flags.width > 0 {
		res.layout, _, err = pipeline.Plan(dec.Image, j.flags.width, crunch.DevicePixelRatio(j.flags.dpr), crunch.Parse(j.flags.crunch))
	} else {
		res.layout, err = pipeline.PlanScale(dec.Image, j.flags.scale)
	}
	if err != nil {
		return res, err
	}

	res.reply, err = pipeline.Render(ctx, pool, dec.Image, res.layout, j.opts)
	if err != nil {
		return res, err
	}
	if ok != nil && !ok() {
		return res, nil
	}

	data, err := j.enc.Encode(res.reply.Image.Image())
	if err != nil {
		return res, fmt.Errorf("encode %s: %w", j.enc.Format(), err)
	}
	dir := filepath.Dir(j.out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ditherimg-*")
	if err != nil {
		return res, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return res, fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return res, fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return res, fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}

	j.publish.Lock()
	defer j.publish.Unlock()
	if ok != nil && !ok() {
		return res, nil
	}
	if err := os.Rename(tmp.Name(), j.out); err != nil {
		return res, fmt.Errorf("write %s: %w", j.out, err)
	}
	res.written = true
	return res, nil
}

var renderOpts renderFlags

var renderCmd = &cobra.Command{
	Use:   "render <input_file>",
	Short: "Dither a single image",
	Long: `Dithers one image and writes it to --out.

Without --width the source keeps its size in dither pixels and every pixel
becomes a --scale × --scale block. With --width the image is fitted to that
display width at --dpr using the --crunch rules.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderOpts.register(renderCmd)
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	job, err := renderOpts.resolve(cmd, args[0])
	if err != nil {
		return err
	}

	pool := worker.NewPool(1)
	defer pool.Close()

	res, err := job.run(cmd.Context(), pool, nil)
	if err != nil {
		return err
	}
	l := res.layout
	logVerbose("logical %dx%d, pixel size %d", l.LogicalWidth, l.LogicalHeight, l.PixelSize)
	fmt.Printf("  ✓ %s → %s  %dx%d  (%.1f%% dark)\n",
		job.in, job.out, res.reply.Image.Width, res.reply.Image.Height, res.reply.Stats.DarkRatio()*100)
	return nil
}
