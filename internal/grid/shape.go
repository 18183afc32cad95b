package grid

import (
	"fmt"
	"math"
)

// Shape holds the dimensions of a grid.
type Shape struct {
	Rows int
	Cols int
}

// NumElements returns the total number of elements.
func (s Shape) NumElements() int {
	return s.Rows * s.Cols
}

// Validate checks that both dimensions are positive and that NumElements
// fits in an int.
func (s Shape) Validate() error {
	if s.Rows <= 0 || s.Cols <= 0 {
		return fmt.Errorf("%w: shape %s (dimensions must be > 0)", ErrInvalidInput, s)
	}
	if s.Rows > math.MaxInt/s.Cols {
		return fmt.Errorf("%w: shape %s overflows the element count", ErrInvalidInput, s)
	}
	return nil
}

// Contains reports whether (row, col) lies inside the shape.
func (s Shape) Contains(row, col int) bool {
	return row >= 0 && row < s.Rows && col >= 0 && col < s.Cols
}

// String returns "RxC".
func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}
