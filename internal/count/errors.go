package count

import (
	"fmt"

	"github.com/born-ml/gridcount/internal/grid"
)

// ErrInvalidInput is returned for non-positive block sizes or worker counts,
// nil grids and nil predicates. It is the same sentinel grid construction uses.
var ErrInvalidInput = grid.ErrInvalidInput

// PredicateError reports a predicate that failed during a count, either by
// returning an error or by panicking. A count that fails this way has no
// result: no partial total is ever returned.
type PredicateError struct {
	Worker int   // Worker that observed the failure, -1 for sequential counts.
	Block  int   // Flattened block index, -1 for sequential counts.
	Err    error // Predicate error, or a *parallel.PanicError for panics.
}

// Error implements the error interface.
func (e *PredicateError) Error() string {
	if e.Worker < 0 {
		return fmt.Sprintf("count: predicate failed: %v", e.Err)
	}
	return fmt.Sprintf("count: predicate failed in worker %d, block %d: %v", e.Worker, e.Block, e.Err)
}

// Unwrap returns the underlying failure.
func (e *PredicateError) Unwrap() error {
	return e.Err
}
