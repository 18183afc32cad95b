// Package count implements predicate counting over grids, sequentially or
// with a pool of goroutines working on square blocks.
//
// The parallel counter splits the grid into blockSize×blockSize blocks,
// numbers them row-major and hands them to workers round-robin: worker w
// takes blocks w, w+workers, w+2*workers, ... Each worker keeps a private
// count and stores it once in its own slot; the totals are summed after all
// workers have been joined. No locks or atomics are used on the hot path.
package count

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/born-ml/gridcount/internal/grid"
	"github.com/born-ml/gridcount/internal/parallel"
)

// Satisfying counts the elements of g for which pred returns true, visiting
// each element once in row-major order. A panicking predicate aborts the count
// and the panic reaches the caller unchanged.
//
// g and pred must be non-nil. Satisfying has no error result, so unlike the
// other counters it does not report ErrInvalidInput; a nil argument panics.
func Satisfying(g *grid.Grid, pred Predicate) int {
	n := 0
	for i := 0; i < g.Rows(); i++ {
		for _, v := range g.Row(i) {
			if pred(v) {
				n++
			}
		}
	}
	return n
}

// SatisfyingChecked is Satisfying for predicates that can fail. The first
// predicate error stops the walk and is returned as a *PredicateError.
func SatisfyingChecked(g *grid.Grid, pred CheckedPredicate) (int, error) {
	if g == nil || pred == nil {
		return 0, fmt.Errorf("%w: grid and predicate are required", ErrInvalidInput)
	}

	n := 0
	for i := 0; i < g.Rows(); i++ {
		for _, v := range g.Row(i) {
			ok, err := pred(v)
			if err != nil {
				return 0, &PredicateError{Worker: -1, Block: -1, Err: err}
			}
			if ok {
				n++
			}
		}
	}
	return n, nil
}

// Option configures the parallel counters.
type Option func(*options)

type options struct {
	blockSize  int
	workers    int
	workersSet bool
}

// WithBlockSize sets the block edge length. Defaults to DefaultBlockSize.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithWorkers sets the requested number of workers. Without it the counter
// uses parallel.DefaultWorkers(). The count actually started never exceeds
// the number of blocks.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
		o.workersSet = true
	}
}

// Plan is a validated parallel count layout.
type Plan struct {
	Partition Partition
	Workers   int // Effective worker count, already clamped to the block count.
}

// NewPlan validates opts against shape and resolves the effective worker
// count.
func NewPlan(shape grid.Shape, opts ...Option) (Plan, error) {
	o := &options{blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(o)
	}

	p, err := NewPartition(shape, o.blockSize)
	if err != nil {
		return Plan{}, err
	}

	workers := parallel.DefaultWorkers()
	if o.workersSet {
		if o.workers <= 0 {
			return Plan{}, fmt.Errorf("%w: worker count %d (must be > 0)", ErrInvalidInput, o.workers)
		}
		workers = o.workers
	}

	return Plan{Partition: p, Workers: p.ClampWorkers(workers)}, nil
}

// Result is the outcome of a parallel count.
type Result struct {
	Total    int
	Partials []int // Per-worker counts, indexed by worker id.
	Plan     Plan
}

// SatisfyingParallel counts the elements of g for which pred returns true
// using a pool of goroutines over square blocks. The total always equals
// Satisfying(g, pred).
//
// A panic inside pred is recovered in its worker, stops the other workers at
// their next block and is returned as a *PredicateError.
func SatisfyingParallel(g *grid.Grid, pred Predicate, opts ...Option) (int, error) {
	return SatisfyingParallelContext(context.Background(), g, pred, opts...)
}

// SatisfyingParallelContext is SatisfyingParallel with cancellation. Workers
// check ctx between blocks.
func SatisfyingParallelContext(ctx context.Context, g *grid.Grid, pred Predicate, opts ...Option) (int, error) {
	res, err := SatisfyingParallelStats(ctx, g, pred, opts...)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

// SatisfyingParallelStats is SatisfyingParallelContext returning per-worker
// counts and the plan that produced them.
func SatisfyingParallelStats(ctx context.Context, g *grid.Grid, pred Predicate, opts ...Option) (Result, error) {
	if g == nil || pred == nil {
		return Result{}, fmt.Errorf("%w: grid and predicate are required", ErrInvalidInput)
	}
	return run(ctx, g, opts, func(b Block) (int, error) {
		return countBlock(g, b, pred), nil
	})
}

// SatisfyingParallelChecked is the parallel counter for predicates that can
// fail. The first failure cancels the remaining workers.
func SatisfyingParallelChecked(ctx context.Context, g *grid.Grid, pred CheckedPredicate, opts ...Option) (int, error) {
	if g == nil || pred == nil {
		return 0, fmt.Errorf("%w: grid and predicate are required", ErrInvalidInput)
	}
	res, err := run(ctx, g, opts, func(b Block) (int, error) {
		return countBlockChecked(g, b, pred)
	})
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

// run validates the layout before starting any goroutine, then counts.
func run(ctx context.Context, g *grid.Grid, opts []Option, blockFn func(Block) (int, error)) (Result, error) {
	plan, err := NewPlan(g.Shape(), opts...)
	if err != nil {
		return Result{}, err
	}

	partials := make([]int, plan.Workers)
	total := plan.Partition.TotalBlocks()

	err = parallel.Run(ctx, plan.Workers, func(ctx context.Context, w int) (err error) {
		idx := -1
		defer func() {
			if r := recover(); r != nil {
				err = &PredicateError{
					Worker: w,
					Block:  idx,
					Err:    &parallel.PanicError{Worker: w, Value: r, Stack: debug.Stack()},
				}
			}
		}()

		n := 0
		for i := range parallel.Stride(w, plan.Workers, total) {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			idx = i
			c, berr := blockFn(plan.Partition.Block(i))
			if berr != nil {
				return &PredicateError{Worker: w, Block: i, Err: berr}
			}
			n += c
		}
		partials[w] = n
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	sum := 0
	for _, c := range partials {
		sum += c
	}
	return Result{Total: sum, Partials: partials, Plan: plan}, nil
}

func countBlock(g *grid.Grid, b Block, pred Predicate) int {
	n := 0
	for i := b.RowStart; i < b.RowEnd; i++ {
		for _, v := range g.Row(i)[b.ColStart:b.ColEnd] {
			if pred(v) {
				n++
			}
		}
	}
	return n
}

func countBlockChecked(g *grid.Grid, b Block, pred CheckedPredicate) (int, error) {
	n := 0
	for i := b.RowStart; i < b.RowEnd; i++ {
		for _, v := range g.Row(i)[b.ColStart:b.ColEnd] {
			ok, err := pred(v)
			if err != nil {
				return 0, err
			}
			if ok {
				n++
			}
		}
	}
	return n, nil
}
