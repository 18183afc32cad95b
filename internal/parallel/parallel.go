// Package parallel provides the goroutine helpers behind grid construction
// and block counting.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Config controls chunked loop execution.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// DefaultWorkers is the worker count used when a caller does not pick one:
// one less than the CPU count, leaving a core for the coordinator, and never
// less than one.
func DefaultWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ErrNoWorkers is returned by Run when asked to start fewer than one worker.
var ErrNoWorkers = errors.New("parallel: workers must be >= 1")

// PanicError reports a panic recovered inside a worker.
type PanicError struct {
	Worker int
	Value  any
	Stack  []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("parallel: worker %d panicked: %v", e.Worker, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Run starts exactly workers goroutines, calling fn(ctx, w) for w in
// [0, workers), and waits for all of them.
//
// The first non-nil error or recovered panic cancels ctx for the remaining
// workers and is returned once every goroutine has exited. Workers observe
// cancellation only where fn checks ctx.
func Run(ctx context.Context, workers int, fn func(ctx context.Context, worker int) error) error {
	if workers < 1 {
		return fmt.Errorf("%w (got %d)", ErrNoWorkers, workers)
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Worker: w, Value: r, Stack: debug.Stack()}
				}
			}()
			return fn(gctx, w)
		})
	}
	return g.Wait()
}

// Stride yields the indices in [0, n) owned by worker under round-robin
// assignment: worker, worker+workers, worker+2*workers, ...
func Stride(worker, workers, n int) iter.Seq[int] {
	return func(yield func(int) bool) {
		if workers < 1 {
			return
		}
		for i := worker; i < n; i += workers {
			if !yield(i) {
				return
			}
		}
	}
}
