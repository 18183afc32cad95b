// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package count counts grid elements that satisfy a predicate.
//
// Satisfying walks the grid on the calling goroutine. SatisfyingParallel
// splits it into square blocks, numbers the blocks row-major and deals them
// round-robin to a pool of goroutines created for the call and joined before
// it returns. Both always produce the same total for a pure predicate.
//
// Example:
//
//	g, _ := grid.Random(1000, 1000)
//	seq := count.Satisfying(g, count.GreaterThan(0.5))
//	par, err := count.SatisfyingParallel(g, count.GreaterThan(0.5),
//	    count.WithBlockSize(50), count.WithWorkers(4))
//
// A predicate that panics (or, for the checked variants, returns an error)
// fails the whole count with a *PredicateError; the other workers stop at
// their next block and no partial total is returned.
package count

import (
	"context"

	"github.com/born-ml/gridcount/internal/count"
	"github.com/born-ml/gridcount/internal/grid"
)

// Predicate decides whether a value is counted. It must be pure.
type Predicate = count.Predicate

// CheckedPredicate is a Predicate that can fail.
type CheckedPredicate = count.CheckedPredicate

// Option configures the parallel counters.
type Option = count.Option

// Partition divides a grid shape into square blocks.
type Partition = count.Partition

// Block is one clamped sub-rectangle of a Partition.
type Block = count.Block

// Plan is a validated parallel count layout.
type Plan = count.Plan

// Result carries the total and per-worker counts of a parallel count.
type Result = count.Result

// PredicateError reports a predicate failure during a count.
type PredicateError = count.PredicateError

// DefaultBlockSize is the block edge length used when none is given.
const DefaultBlockSize = count.DefaultBlockSize

// ErrInvalidInput is returned for invalid block sizes, worker counts, grids
// and predicates.
var ErrInvalidInput = count.ErrInvalidInput

// Satisfying counts the elements of g for which pred returns true. g and pred
// must be non-nil.
func Satisfying(g *grid.Grid, pred Predicate) int {
	return count.Satisfying(g, pred)
}

// SatisfyingChecked counts with a predicate that can fail.
func SatisfyingChecked(g *grid.Grid, pred CheckedPredicate) (int, error) {
	return count.SatisfyingChecked(g, pred)
}

// SatisfyingParallel counts the elements of g for which pred returns true
// using goroutines over square blocks.
func SatisfyingParallel(g *grid.Grid, pred Predicate, opts ...Option) (int, error) {
	return count.SatisfyingParallel(g, pred, opts...)
}

// SatisfyingParallelContext is SatisfyingParallel with cancellation checked
// between blocks.
func SatisfyingParallelContext(ctx context.Context, g *grid.Grid, pred Predicate, opts ...Option) (int, error) {
	return count.SatisfyingParallelContext(ctx, g, pred, opts...)
}

// SatisfyingParallelStats returns per-worker counts alongside the total.
func SatisfyingParallelStats(ctx context.Context, g *grid.Grid, pred Predicate, opts ...Option) (Result, error) {
	return count.SatisfyingParallelStats(ctx, g, pred, opts...)
}

// SatisfyingParallelChecked is the parallel counter for predicates that can
// fail.
func SatisfyingParallelChecked(ctx context.Context, g *grid.Grid, pred CheckedPredicate, opts ...Option) (int, error) {
	return count.SatisfyingParallelChecked(ctx, g, pred, opts...)
}

// WithBlockSize sets the block edge length.
func WithBlockSize(n int) Option {
	return count.WithBlockSize(n)
}

// WithWorkers sets the requested worker count. It is clamped to the number
// of blocks.
func WithWorkers(n int) Option {
	return count.WithWorkers(n)
}

// NewPartition returns the block partition of shape.
func NewPartition(shape grid.Shape, blockSize int) (Partition, error) {
	return count.NewPartition(shape, blockSize)
}

// NewPlan validates opts against shape.
func NewPlan(shape grid.Shape, opts ...Option) (Plan, error) {
	return count.NewPlan(shape, opts...)
}

// GreaterThan matches values strictly above t.
func GreaterThan(t float64) Predicate { return count.GreaterThan(t) }

// LessThan matches values strictly below t.
func LessThan(t float64) Predicate { return count.LessThan(t) }

// InRange matches values in [lo, hi).
func InRange(lo, hi float64) Predicate { return count.InRange(lo, hi) }

// Not negates p.
func Not(p Predicate) Predicate { return count.Not(p) }
