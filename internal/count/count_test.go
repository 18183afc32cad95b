package count

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/born-ml/gridcount/internal/grid"
	"github.com/born-ml/gridcount/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGrid(t testing.TB) *grid.Grid {
	t.Helper()
	g, err := grid.New([][]float64{
		{0.1, 0.6, 0.2, 0.9},
		{0.7, 0.3, 0.4, 0.8},
		{0.5, 0.55, 0.15, 0.95},
		{0.05, 0.65, 0.25, 0.85},
	})
	require.NoError(t, err)
	return g
}

func randomGrid(t testing.TB, rows, cols int, seed uint64) *grid.Grid {
	t.Helper()
	g, err := grid.Random(rows, cols, grid.WithSeed(seed))
	require.NoError(t, err)
	return g
}

func TestSatisfying_Sample(t *testing.T) {
	g := sampleGrid(t)
	assert.Equal(t, 8, Satisfying(g, GreaterThan(0.5)))
}

func TestSatisfyingParallel_Sample(t *testing.T) {
	g := sampleGrid(t)

	n, err := SatisfyingParallel(g, GreaterThan(0.5), WithBlockSize(2))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, Satisfying(g, GreaterThan(0.5)), n)
}

func TestSatisfyingParallel_Defaults(t *testing.T) {
	g := randomGrid(t, 173, 211, 1)
	pred := GreaterThan(0.5)

	n, err := SatisfyingParallel(g, pred)
	require.NoError(t, err)
	assert.Equal(t, Satisfying(g, pred), n)
}

func TestSatisfyingParallel_MatchesSequential(t *testing.T) {
	shapes := []grid.Shape{
		{Rows: 1, Cols: 1},
		{Rows: 1, Cols: 97},
		{Rows: 97, Cols: 1},
		{Rows: 7, Cols: 13},
		{Rows: 64, Cols: 64},
		{Rows: 101, Cols: 53},
	}
	preds := map[string]Predicate{
		"gt0.5":  GreaterThan(0.5),
		"lt0.1":  LessThan(0.1),
		"range":  InRange(0.25, 0.75),
		"none":   func(float64) bool { return false },
		"all":    func(float64) bool { return true },
		"not0.5": Not(GreaterThan(0.5)),
	}

	for si, shape := range shapes {
		g := randomGrid(t, shape.Rows, shape.Cols, uint64(si))
		for name, pred := range preds {
			want := Satisfying(g, pred)
			for _, bs := range []int{1, 2, 3, 8, 50, 1000} {
				for _, workers := range []int{1, 2, 3, 7, 16} {
					got, err := SatisfyingParallel(g, pred, WithBlockSize(bs), WithWorkers(workers))
					require.NoError(t, err)
					require.Equal(t, want, got, "shape=%s pred=%s block=%d workers=%d", shape, name, bs, workers)
				}
			}
		}
	}
}

func TestSatisfyingParallel_EveryElementOnce(t *testing.T) {
	g := randomGrid(t, 45, 38, 9)

	var calls atomic.Int64
	pred := func(float64) bool {
		calls.Add(1)
		return true
	}

	n, err := SatisfyingParallel(g, pred, WithBlockSize(7), WithWorkers(4))
	require.NoError(t, err)
	assert.Equal(t, g.Len(), n)
	assert.Equal(t, int64(g.Len()), calls.Load())
}

func TestSatisfyingParallel_Deterministic(t *testing.T) {
	g := randomGrid(t, 300, 300, 5)
	pred := GreaterThan(0.3)

	first, err := SatisfyingParallel(g, pred, WithBlockSize(16), WithWorkers(8))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		n, err := SatisfyingParallel(g, pred, WithBlockSize(16), WithWorkers(8))
		require.NoError(t, err)
		assert.Equal(t, first, n, "run %d", i)
	}
}

func TestSatisfyingParallel_ClampsWorkers(t *testing.T) {
	g := sampleGrid(t) // 2x2 blocks at block size 2.

	res, err := SatisfyingParallelStats(context.Background(), g, GreaterThan(0.5),
		WithBlockSize(2), WithWorkers(100))
	require.NoError(t, err)

	assert.Equal(t, 4, res.Plan.Workers)
	assert.Len(t, res.Partials, 4)
	assert.Equal(t, 8, res.Total)
	// Blocks: {0.1,0.6,0.7,0.3} {0.2,0.9,0.4,0.8} {0.5,0.55,0.05,0.65} {0.15,0.95,0.25,0.85}
	assert.Equal(t, []int{2, 2, 2, 2}, res.Partials)
}

func TestSatisfyingParallel_SingleBlock(t *testing.T) {
	g := sampleGrid(t)

	res, err := SatisfyingParallelStats(context.Background(), g, GreaterThan(0.5),
		WithBlockSize(50), WithWorkers(8))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Plan.Workers)
	assert.Equal(t, []int{8}, res.Partials)
}

func TestSatisfyingParallel_InvalidInput(t *testing.T) {
	g := sampleGrid(t)
	pred := GreaterThan(0.5)

	tests := []struct {
		name string
		g    *grid.Grid
		pred Predicate
		opts []Option
	}{
		{"zero block size", g, pred, []Option{WithBlockSize(0)}},
		{"negative block size", g, pred, []Option{WithBlockSize(-3)}},
		{"zero workers", g, pred, []Option{WithWorkers(0)}},
		{"negative workers", g, pred, []Option{WithWorkers(-1)}},
		{"nil grid", nil, pred, nil},
		{"nil predicate", g, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := SatisfyingParallel(tt.g, tt.pred, tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Zero(t, n)
		})
	}
}

func TestSatisfyingParallel_InvalidInputStartsNoWorkers(t *testing.T) {
	g := sampleGrid(t)
	var calls atomic.Int64

	_, err := SatisfyingParallel(g, func(float64) bool {
		calls.Add(1)
		return true
	}, WithBlockSize(0))

	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, calls.Load())
}

func TestSatisfyingParallel_PanickingPredicate(t *testing.T) {
	g := randomGrid(t, 120, 120, 3)
	always := func(float64) bool { panic("predicate exploded") }

	for _, workers := range []int{1, 2, 4, 16, 1000} {
		done := make(chan error, 1)
		go func() {
			n, err := SatisfyingParallel(g, always, WithBlockSize(10), WithWorkers(workers))
			assert.Zero(t, n)
			done <- err
		}()

		select {
		case err := <-done:
			var pe *PredicateError
			require.ErrorAs(t, err, &pe, "workers=%d", workers)
			assert.GreaterOrEqual(t, pe.Block, 0)

			var panicErr *parallel.PanicError
			require.ErrorAs(t, err, &panicErr)
			assert.Equal(t, "predicate exploded", panicErr.Value)
		case <-time.After(10 * time.Second):
			t.Fatalf("count hung with workers=%d", workers)
		}
	}
}

func TestSatisfyingParallel_PanicOnOneValue(t *testing.T) {
	g := randomGrid(t, 100, 100, 11)
	require.NoError(t, g.Set(87, 3, -1))

	boom := errors.New("negative value")
	pred := func(v float64) bool {
		if v < 0 {
			panic(boom)
		}
		return v > 0.5
	}

	_, err := SatisfyingParallel(g, pred, WithBlockSize(10), WithWorkers(4))
	require.ErrorIs(t, err, boom)

	var pe *PredicateError
	require.ErrorAs(t, err, &pe)
	// (87, 3) lives in block row 8, block col 0 of a 10x10 block grid.
	assert.Equal(t, 80, pe.Block)
	assert.Equal(t, 0, pe.Worker)
}

func TestSatisfying_PanicPropagates(t *testing.T) {
	g := sampleGrid(t)
	assert.PanicsWithValue(t, "nope", func() {
		Satisfying(g, func(float64) bool { panic("nope") })
	})
}

func TestSatisfying_NilArgumentsPanic(t *testing.T) {
	g := sampleGrid(t)
	assert.Panics(t, func() { Satisfying(g, nil) })
	assert.Panics(t, func() { Satisfying(nil, GreaterThan(0.5)) })

	_, err := SatisfyingChecked(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSatisfyingChecked(t *testing.T) {
	g := sampleGrid(t)

	n, err := SatisfyingChecked(g, func(v float64) (bool, error) { return v > 0.5, nil })
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	boom := errors.New("boom")
	n, err = SatisfyingChecked(g, func(v float64) (bool, error) {
		if v == 0.4 {
			return false, boom
		}
		return true, nil
	})
	assert.Zero(t, n)
	assert.ErrorIs(t, err, boom)

	var pe *PredicateError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, -1, pe.Worker)
	assert.Equal(t, "count: predicate failed: boom", pe.Error())

	_, err = SatisfyingChecked(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSatisfyingParallelChecked(t *testing.T) {
	g := randomGrid(t, 64, 80, 21)
	want := Satisfying(g, GreaterThan(0.5))

	n, err := SatisfyingParallelChecked(context.Background(), g,
		func(v float64) (bool, error) { return v > 0.5, nil },
		WithBlockSize(9), WithWorkers(5))
	require.NoError(t, err)
	assert.Equal(t, want, n)
}

func TestSatisfyingParallelChecked_AlwaysFails(t *testing.T) {
	g := randomGrid(t, 64, 64, 2)
	boom := errors.New("boom")

	for _, workers := range []int{1, 3, 8, 64} {
		n, err := SatisfyingParallelChecked(context.Background(), g,
			func(float64) (bool, error) { return false, boom },
			WithBlockSize(8), WithWorkers(workers))
		assert.Zero(t, n)
		require.ErrorIs(t, err, boom, "workers=%d", workers)

		var pe *PredicateError
		require.ErrorAs(t, err, &pe)
		assert.Contains(t, pe.Error(), "predicate failed in worker")
	}
}

func TestSatisfyingParallelContext_Cancelled(t *testing.T) {
	g := randomGrid(t, 50, 50, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := SatisfyingParallelContext(ctx, g, GreaterThan(0.5), WithBlockSize(5), WithWorkers(3))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSatisfyingParallelContext_CancelMidRun(t *testing.T) {
	g := randomGrid(t, 200, 200, 8)
	ctx, cancel := context.WithCancel(context.Background())

	var seen atomic.Int64
	pred := func(v float64) bool {
		if seen.Add(1) == 100 {
			cancel()
		}
		return v > 0.5
	}

	_, err := SatisfyingParallelContext(ctx, g, pred, WithBlockSize(10), WithWorkers(2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, seen.Load(), int64(g.Len()))
}

func TestNewPlan_DefaultWorkers(t *testing.T) {
	plan, err := NewPlan(grid.Shape{Rows: 1000, Cols: 1000})
	require.NoError(t, err)

	assert.Equal(t, DefaultBlockSize, plan.Partition.BlockSize())
	assert.Equal(t, min(parallel.DefaultWorkers(), 400), plan.Workers)
	assert.GreaterOrEqual(t, plan.Workers, 1)
}

func TestPredicates(t *testing.T) {
	assert.True(t, GreaterThan(0.5)(0.6))
	assert.False(t, GreaterThan(0.5)(0.5))
	assert.True(t, LessThan(0.5)(0.4))
	assert.False(t, LessThan(0.5)(0.5))
	assert.True(t, InRange(0, 1)(0))
	assert.False(t, InRange(0, 1)(1))
	assert.False(t, InRange(0, 1)(math.NaN()))
	assert.True(t, Not(GreaterThan(0.5))(0.5))
}

func BenchmarkSatisfying(b *testing.B) {
	g := randomGrid(b, 1000, 1000, 1)
	pred := GreaterThan(0.5)

	b.Run("sequential", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = Satisfying(g, pred)
		}
	})

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = SatisfyingParallel(g, pred)
		}
	})

	b.Run("parallel_4workers", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = SatisfyingParallel(g, pred, WithWorkers(4))
		}
	})
}
