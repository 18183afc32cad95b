// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package grid provides the dense 2-D float64 grid used by gridcount.
//
// # Overview
//
// A Grid has fixed dimensions chosen at construction and stores its values
// row-major. It is safe to share between goroutines as long as nobody calls
// Set, which is how the parallel counters in package count use it.
//
// # Basic Usage
//
//	import "github.com/born-ml/gridcount/grid"
//
//	g, err := grid.New([][]float64{
//	    {0.1, 0.6},
//	    {0.7, 0.3},
//	})
//
//	r, err := grid.Random(1000, 1000, grid.WithRange(-1, 1), grid.WithSeed(42))
//	v, err := r.At(10, 20)
//	fmt.Print(g) // "0.10\t0.60\n0.70\t0.30\n"
//
// # Errors
//
// Construction reports ErrInvalidInput for empty or non-positive dimensions,
// ragged rows and empty fill ranges. Element access outside the grid reports
// ErrIndexOutOfRange. Both are matched with errors.Is.
//
// # Randomness
//
// Random never touches a process-wide generator: each call derives a seed
// (or uses the one from WithSeed) and fills every row from its own PCG
// generator, so grids can be built concurrently and seeded fills are
// reproducible.
package grid
