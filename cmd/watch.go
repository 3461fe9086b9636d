package cmd

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/ditherimg-cli/internal/worker"
)

var (
	watchOpts     renderFlags
	watchInterval time.Duration
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <input_file>",
	Short: "Re-render an image whenever it changes",
	Long: `Polls the input file and re-renders it to --out after it stops changing
for --debounce. A render that is overtaken by a newer change is dropped
instead of written.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchOpts.register(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 250*time.Millisecond, "poll interval")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 200*time.Millisecond, "quiet period before rendering")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	job, err := watchOpts.resolve(cmd, args[0])
	if err != nil {
		return err
	}
	if watchInterval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	ctx := cmd.Context()
	pool := worker.NewPool(2)
	defer pool.Close()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	var latest worker.Latest
	done := make(chan error, 1)
	start := func() {
		token := latest.Next()
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			res, err := job.run(ctx, pool, func() bool { return latest.IsCurrent(token) })
			if err != nil {
				select {
				case done <- err:
				case <-ctx.Done():
				}
				return
			}
			if !res.written {
				logVerbose("dropped stale render #%d", token)
				return
			}
			fmt.Printf("  ✓ render #%d → %s  %dx%d  (%.1f%% dark)\n",
				token, job.out, res.reply.Image.Width, res.reply.Image.Height, res.reply.Stats.DarkRatio()*100)
		}()
	}

	var lastMod time.Time
	var changedAt time.Time
	pending := true // render once at startup

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	fmt.Printf("  watching %s (Ctrl-C to stop)\n", job.in)

	for {
		if info, err := os.Stat(job.in); err == nil && !info.ModTime().Equal(lastMod) {
			if !lastMod.IsZero() {
				logVerbose("change detected: %s", info.ModTime().Format(time.RFC3339Nano))
				pending = true
			}
			lastMod = info.ModTime()
			changedAt = time.Now()
		}
		if pending && time.Since(changedAt) >= watchDebounce {
			pending = false
			start()
		}

		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			// Keep watching through a bad save; report it and wait for the next one.
			fmt.Fprintf(os.Stderr, "[ditherimg] error: %v\n", err)
		case <-ticker.C:
		}
	}
}
