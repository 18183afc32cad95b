// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package grid

import (
	"github.com/born-ml/gridcount/internal/grid"
	"github.com/born-ml/gridcount/internal/parallel"
	"gonum.org/v1/gonum/mat"
)

// Grid is a dense rows×cols matrix of float64 values.
type Grid = grid.Grid

// Shape holds the dimensions of a grid.
type Shape = grid.Shape

// RandomOption configures Random.
type RandomOption = grid.RandomOption

// ParallelConfig controls how Random distributes rows across goroutines.
type ParallelConfig = parallel.Config

// Errors reported by construction and element access.
var (
	ErrInvalidInput    = grid.ErrInvalidInput
	ErrIndexOutOfRange = grid.ErrIndexOutOfRange
)

// New creates a grid from rectangular data. The data is copied.
func New(data [][]float64) (*Grid, error) {
	return grid.New(data)
}

// FromSlice creates a grid from row-major data. The data is copied.
func FromSlice(data []float64, shape Shape) (*Grid, error) {
	return grid.FromSlice(data, shape)
}

// FromMatrix copies a gonum matrix into a new grid.
func FromMatrix(m mat.Matrix) (*Grid, error) {
	return grid.FromMatrix(m)
}

// Random creates a rows×cols grid of values drawn uniformly from [0, 1), or
// from the range given by WithRange.
//
// Example:
//
//	g, err := grid.Random(20000, 20000, grid.WithSeed(7))
func Random(rows, cols int, opts ...RandomOption) (*Grid, error) {
	return grid.Random(rows, cols, opts...)
}

// WithRange sets the half-open fill range [lo, hi).
func WithRange(lo, hi float64) RandomOption {
	return grid.WithRange(lo, hi)
}

// WithSeed makes Random reproducible.
func WithSeed(seed uint64) RandomOption {
	return grid.WithSeed(seed)
}

// WithParallel sets how rows are distributed while filling.
func WithParallel(cfg ParallelConfig) RandomOption {
	return grid.WithParallel(cfg)
}

// DefaultParallelConfig returns the fill parallelism Random uses by default.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}
