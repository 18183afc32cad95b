package grid

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/born-ml/gridcount/internal/parallel"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// New creates a grid from rectangular data. The data is copied.
//
// Example:
//
//	g, err := grid.New([][]float64{
//	    {0.1, 0.6},
//	    {0.7, 0.3},
//	})
func New(data [][]float64) (*Grid, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: data cannot be empty", ErrInvalidInput)
	}

	shape := Shape{Rows: len(data), Cols: len(data[0])}
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	flat := make([]float64, 0, shape.NumElements())
	for i, row := range data {
		if len(row) != shape.Cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrInvalidInput, i, len(row), shape.Cols)
		}
		flat = append(flat, row...)
	}
	return newGrid(flat, shape), nil
}

// FromSlice creates a grid from row-major data. The data is copied.
//
// Example:
//
//	g, err := grid.FromSlice([]float64{1, 2, 3, 4, 5, 6}, grid.Shape{Rows: 2, Cols: 3})
func FromSlice(data []float64, shape Shape) (*Grid, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("%w: %d values do not fill a %s grid", ErrInvalidInput, len(data), shape)
	}

	flat := make([]float64, len(data))
	copy(flat, data)
	return newGrid(flat, shape), nil
}

// FromMatrix copies a gonum matrix into a new grid.
func FromMatrix(m mat.Matrix) (*Grid, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: matrix is nil", ErrInvalidInput)
	}

	r, c := m.Dims()
	shape := Shape{Rows: r, Cols: c}
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	flat := make([]float64, shape.NumElements())
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			flat[i*c+j] = m.At(i, j)
		}
	}
	return newGrid(flat, shape), nil
}

// Dense returns a gonum copy of the grid.
func (g *Grid) Dense() *mat.Dense {
	return mat.NewDense(g.shape.Rows, g.shape.Cols, g.Data())
}

// RandomOption configures Random.
type RandomOption func(*randomOptions)

type randomOptions struct {
	min, max float64
	seed     uint64
	seeded   bool
	par      parallel.Config
}

// WithRange sets the half-open fill range [lo, hi). Defaults to [0, 1).
func WithRange(lo, hi float64) RandomOption {
	return func(o *randomOptions) {
		o.min, o.max = lo, hi
	}
}

// WithSeed makes the fill reproducible: the same seed, shape and range always
// yield the same grid, however the rows are scheduled.
func WithSeed(seed uint64) RandomOption {
	return func(o *randomOptions) {
		o.seed = seed
		o.seeded = true
	}
}

// WithParallel sets how rows are distributed while filling.
func WithParallel(cfg parallel.Config) RandomOption {
	return func(o *randomOptions) {
		o.par = cfg
	}
}

// Random creates a rows×cols grid with values drawn independently and
// uniformly from [min, max), [0, 1) unless WithRange is given.
//
// Every row is filled by its own PCG generator derived from a per-call seed,
// so concurrent calls never share generator state.
//
// Example:
//
//	g, err := grid.Random(1000, 1000, grid.WithRange(-1, 1), grid.WithSeed(42))
func Random(rows, cols int, opts ...RandomOption) (*Grid, error) {
	options := &randomOptions{
		min: 0.0,
		max: 1.0,
		par: parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	shape := Shape{Rows: rows, Cols: cols}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if err := validateRange(options.min, options.max); err != nil {
		return nil, err
	}

	seed := options.seed
	if !options.seeded {
		seed = rand.Uint64() //nolint:gosec // G404: statistical fill, not security sensitive
	}

	dist := distuv.Uniform{Min: options.min, Max: options.max}
	data := make([]float64, shape.NumElements())

	parallel.For(rows, func(i int) {
		rng := rand.New(rand.NewPCG(seed, uint64(i))) //nolint:gosec // G404,G115: row index is non-negative
		row := data[i*cols : (i+1)*cols]
		for j := range row {
			row[j] = draw(dist, rng)
		}
	}, options.par)

	return newGrid(data, shape), nil
}

// draw maps a uniform [0, 1) sample onto dist's range. Rounding can land
// p*(max-min)+min exactly on max; such values step back below it.
func draw(dist distuv.Uniform, rng *rand.Rand) float64 {
	v := dist.Quantile(rng.Float64())
	if v >= dist.Max {
		v = math.Nextafter(dist.Max, dist.Min)
	}
	return v
}

func validateRange(lo, hi float64) error {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return fmt.Errorf("%w: fill range [%v, %v) must be finite", ErrInvalidInput, lo, hi)
	}
	if hi <= lo {
		return fmt.Errorf("%w: fill range [%v, %v) is empty", ErrInvalidInput, lo, hi)
	}
	if math.IsInf(hi-lo, 0) {
		return fmt.Errorf("%w: fill range [%v, %v) is too wide", ErrInvalidInput, lo, hi)
	}
	return nil
}
