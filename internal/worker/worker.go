// Package worker runs dither jobs on a fixed set of background goroutines.
//
// Requests and replies mirror the message shape a UI thread would post to
// a render worker: the source image plus pixel size and colors in, the
// finished image plus the parameters it was rendered with out.
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/AnyUserName/ditherimg-cli/internal/dither"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker: pool closed")

// Request is one dither job.
type Request struct {
	Image     *dither.PixelBuffer
	PixelSize int
	Options   dither.Options
}

// Reply carries the result of a Request. Image is nil when Err is set.
type Reply struct {
	Image     *dither.PixelBuffer
	PixelSize int
	Cutoff    float64
	Stats     dither.Stats
	Err       error
}

// Future is the pending reply of a submitted request.
type Future struct {
	done  chan struct{}
	reply Reply
}

// Done is closed once the reply is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the reply is ready or ctx ends. The job itself keeps
// running if ctx ends first.
func (f *Future) Wait(ctx context.Context) (Reply, error) {
	select {
	case <-f.done:
		return f.reply, f.reply.Err
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

type job struct {
	req Request
	fut *Future
}

// Pool is a fixed-size group of dither goroutines fed from one queue.
type Pool struct {
	jobs    chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	workers int
}

// NewPool starts workers goroutines. workers <= 0 means runtime.NumCPU().
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		jobs:    make(chan job, workers),
		workers: workers,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

// Workers returns the number of goroutines serving the pool.
func (p *Pool) Workers() int { return p.workers }

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		j.fut.reply = process(j.req)
		close(j.fut.done)
	}
}

func process(req Request) Reply {
	out, stats, err := dither.DitherStats(req.Image, req.PixelSize, req.Options)
	return Reply{
		Image:     out,
		PixelSize: req.PixelSize,
		Cutoff:    req.Options.Cutoff,
		Stats:     stats,
		Err:       err,
	}
}

// Submit queues req. It blocks while the queue is full, until ctx ends.
func (p *Pool) Submit(ctx context.Context, req Request) (*Future, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}

	fut := &Future{done: make(chan struct{})}
	select {
	case p.jobs <- job{req: req, fut: fut}:
		return fut, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do submits req and waits for its reply.
func (p *Pool) Do(ctx context.Context, req Request) (Reply, error) {
	fut, err := p.Submit(ctx, req)
	if err != nil {
		return Reply{}, err
	}
	return fut.Wait(ctx)
}

// Close stops accepting work, lets queued jobs finish and waits for the
// workers to exit. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
