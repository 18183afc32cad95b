package count

// Predicate decides whether a value is counted. It must be a pure function of
// its argument: the parallel counter calls it from many goroutines in no
// particular order.
type Predicate func(v float64) bool

// CheckedPredicate is a Predicate that can fail. The first error aborts the
// count.
type CheckedPredicate func(v float64) (bool, error)

// GreaterThan matches values strictly above t.
func GreaterThan(t float64) Predicate {
	return func(v float64) bool { return v > t }
}

// LessThan matches values strictly below t.
func LessThan(t float64) Predicate {
	return func(v float64) bool { return v < t }
}

// InRange matches values in [lo, hi).
func InRange(lo, hi float64) Predicate {
	return func(v float64) bool { return v >= lo && v < hi }
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(v float64) bool { return !p(v) }
}
