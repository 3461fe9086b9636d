package pipeline

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/AnyUserName/ditherimg-cli/internal/crunch"
	"github.com/AnyUserName/ditherimg-cli/internal/dither"
	"github.com/AnyUserName/ditherimg-cli/internal/encoder"
	"github.com/AnyUserName/ditherimg-cli/internal/manifest"
	"github.com/AnyUserName/ditherimg-cli/internal/profile"
	"github.com/AnyUserName/ditherimg-cli/internal/worker"
)

// Config holds all parameters for a build pipeline run.
type Config struct {
	InputDir  string
	OutputDir string
	Profile   profile.Profile
	Options   dither.Options // cutoff and colors, already resolved
	Workers   int
	Verbose   bool
}

// Pipeline orchestrates image processing.
type Pipeline struct {
	cfg      Config
	crunch   crunch.Crunch
	registry *encoder.Registry
	pool     *worker.Pool
	cache    *renderCache
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Pipeline{
		cfg:      cfg,
		crunch:   crunch.Parse(cfg.Profile.Crunch),
		registry: encoder.NewRegistry(),
		cache:    newRenderCache(),
	}
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.cfg.Verbose {
		fmt.Fprintf(os.Stderr, "[ditherimg] "+format+"\n", args...)
	}
}

// Run executes the full build pipeline and returns the manifest.
func (p *Pipeline) Run(ctx context.Context) (*manifest.Manifest, error) {
	p.logf("%s", p.registry.String())

	// Step 1: Scan for images.
	sources, err := ScanImages(p.cfg.InputDir, p.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", p.cfg.InputDir)
	}
	p.logf("found %d images", len(sources))

	// Step 2: Process images in parallel; dithering runs on the pool.
	p.pool = worker.NewPool(p.cfg.Workers)
	defer p.pool.Close()

	results := make([]processResult, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			if err := ctx.Err(); err != nil {
				results[idx] = processResult{key: s.Key, err: err}
				return
			}

			p.logf("processing: %s", s.Key)
			results[idx] = p.processImage(ctx, s)
			if results[idx].err == nil {
				p.logf("done: %s (%d renders)", s.Key, len(results[idx].asset.Renders))
			}
		}(i, src)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 3: Collect results into manifest.
	m := manifest.New(p.cfg.Profile.Name)

	var errs []error
	var reused int
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		m.Assets[r.key] = r.asset
		reused += r.reused
	}

	// Report errors but don't fail the entire build for partial failures.
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "[ditherimg] error: %v\n", e)
		}
		if len(errs) == len(sources) {
			return nil, fmt.Errorf("all %d images failed to process", len(errs))
		}
		fmt.Fprintf(os.Stderr, "[ditherimg] warning: %d of %d images had errors\n",
			len(errs), len(sources))
	}

	m.BuildInfo = &manifest.BuildInfo{
		Workers: p.pool.Workers(),
		DPR:     p.cfg.Profile.DPR,
		Crunch:  p.crunch.String(),
	}
	m.Stats.ReusedRenders = reused
	m.ComputeStats()
	return m, nil
}
