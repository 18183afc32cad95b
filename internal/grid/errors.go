package grid

import "errors"

// Common errors. Callers match them with errors.Is; returned errors wrap them
// with the offending values.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrIndexOutOfRange = errors.New("index out of range")
)
