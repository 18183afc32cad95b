// Package grid provides the dense 2-D float64 container the counting engine
// operates on.
//
// A Grid stores its values row-major in a single slice. Dimensions are fixed
// at construction; values change only through Set.
package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Grid is a dense rows×cols matrix of float64 values.
//
// A Grid is safe for concurrent reads. Set must not run concurrently with
// any other access.
type Grid struct {
	data  []float64
	shape Shape
}

// newGrid wraps data without copying. Callers guarantee len(data) matches shape.
func newGrid(data []float64, shape Shape) *Grid {
	return &Grid{data: data, shape: shape}
}

// Rows returns the number of rows.
func (g *Grid) Rows() int {
	return g.shape.Rows
}

// Cols returns the number of columns.
func (g *Grid) Cols() int {
	return g.shape.Cols
}

// Shape returns the grid dimensions.
func (g *Grid) Shape() Shape {
	return g.shape
}

// Len returns the number of elements (rows*cols).
func (g *Grid) Len() int {
	return len(g.data)
}

// At returns the value at (row, col).
func (g *Grid) At(row, col int) (float64, error) {
	if !g.shape.Contains(row, col) {
		return 0, fmt.Errorf("%w: (%d, %d) outside %s grid", ErrIndexOutOfRange, row, col, g.shape)
	}
	return g.data[row*g.shape.Cols+col], nil
}

// Set stores v at (row, col).
func (g *Grid) Set(row, col int, v float64) error {
	if !g.shape.Contains(row, col) {
		return fmt.Errorf("%w: (%d, %d) outside %s grid", ErrIndexOutOfRange, row, col, g.shape)
	}
	g.data[row*g.shape.Cols+col] = v
	return nil
}

// Row returns a view of row i backed by the grid's storage.
// The slice must be treated as read-only. Panics if i is out of range.
func (g *Grid) Row(i int) []float64 {
	start := i * g.shape.Cols
	end := start + g.shape.Cols
	return g.data[start:end:end]
}

// Data returns a row-major copy of all values.
func (g *Grid) Data() []float64 {
	out := make([]float64, len(g.data))
	copy(out, g.data)
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	return newGrid(g.Data(), g.shape)
}

// String renders the grid one row per line, values tab-separated with two
// decimal places.
func (g *Grid) String() string {
	var sb strings.Builder
	// "0.00\t" is the common case; negative and wide values just grow the buffer.
	sb.Grow(len(g.data) * 5)

	buf := make([]byte, 0, 32)
	for i := 0; i < g.shape.Rows; i++ {
		for j, v := range g.Row(i) {
			if j > 0 {
				sb.WriteByte('\t')
			}
			buf = strconv.AppendFloat(buf[:0], v, 'f', 2, 64)
			sb.Write(buf)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
