// Package bench times sequential against parallel counting on the same grid
// and reports average latencies and speedup.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/born-ml/gridcount/internal/count"
	"github.com/born-ml/gridcount/internal/grid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrMismatch is returned when the sequential and parallel counts disagree.
var ErrMismatch = errors.New("bench: sequential and parallel counts differ")

// Scenario describes one speed test.
type Scenario struct {
	Rows, Cols int
	BlockSize  int
	Workers    int // 0 selects the counter's default.
	Trials     int
}

// DefaultSuite returns the classic set of speed tests: a 1000×1000 grid with
// 50-wide blocks over 10 trials and a 20000×20000 grid with 1000-wide blocks
// over 5 trials, each run once with the default worker count and once with 4
// workers.
func DefaultSuite() []Scenario {
	return []Scenario{
		{Rows: 1000, Cols: 1000, BlockSize: 50, Workers: 0, Trials: 10},
		{Rows: 1000, Cols: 1000, BlockSize: 50, Workers: 4, Trials: 10},
		{Rows: 20000, Cols: 20000, BlockSize: 1000, Workers: 0, Trials: 5},
		{Rows: 20000, Cols: 20000, BlockSize: 1000, Workers: 4, Trials: 5},
	}
}

// Stats summarizes the latencies of repeated trials.
type Stats struct {
	Mean   time.Duration
	StdDev time.Duration
	Min    time.Duration
	Max    time.Duration
}

// Report is the outcome of one scenario.
type Report struct {
	ID         uuid.UUID
	Shape      grid.Shape
	BlockSize  int
	Workers    int // Effective workers after clamping.
	Trials     int
	Count      int
	Sequential Stats
	Parallel   Stats
}

// Speedup returns the sequential mean divided by the parallel mean.
func (r Report) Speedup() float64 {
	if r.Parallel.Mean <= 0 {
		return 0
	}
	return float64(r.Sequential.Mean) / float64(r.Parallel.Mean)
}

// WriteTo renders the report for a console.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w,
		"Test for matrix %s, with %d workers and block size %dx%d:\n"+
			"Single-threaded average execution time: %s\n"+
			"Multi-threaded average execution time: %s\n"+
			"Speedup: %.2fx\n\n",
		r.Shape, r.Workers, r.BlockSize, r.BlockSize,
		formatMillis(r.Sequential.Mean),
		formatMillis(r.Parallel.Mean),
		r.Speedup(),
	)
	return int64(n), err
}

func formatMillis(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}

// Runner executes scenarios.
type Runner struct {
	Logger logrus.FieldLogger
	Pred   count.Predicate
	Fill   []grid.RandomOption

	// now is replaced in tests.
	now func() time.Time
}

// NewRunner returns a Runner counting values matched by pred.
func NewRunner(logger logrus.FieldLogger, pred count.Predicate, fill ...grid.RandomOption) *Runner {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Runner{Logger: logger, Pred: pred, Fill: fill, now: time.Now}
}

// RunScenario builds a random grid for s and times both counters on it.
func (r *Runner) RunScenario(ctx context.Context, s Scenario) (Report, error) {
	r.Logger.WithFields(logrus.Fields{"rows": s.Rows, "cols": s.Cols}).Info("generating grid")
	g, err := grid.Random(s.Rows, s.Cols, r.Fill...)
	if err != nil {
		return Report{}, fmt.Errorf("bench: generate grid: %w", err)
	}
	return r.Run(ctx, g, s)
}

// Run times s.Trials sequential counts and s.Trials parallel counts of g.
// Any counting failure or disagreement between the two modes aborts the run.
func (r *Runner) Run(ctx context.Context, g *grid.Grid, s Scenario) (Report, error) {
	if s.Trials <= 0 {
		return Report{}, fmt.Errorf("%w: trials %d (must be > 0)", grid.ErrInvalidInput, s.Trials)
	}

	opts := []count.Option{count.WithBlockSize(s.BlockSize)}
	if s.Workers > 0 {
		opts = append(opts, count.WithWorkers(s.Workers))
	}
	plan, err := count.NewPlan(g.Shape(), opts...)
	if err != nil {
		return Report{}, err
	}

	id := uuid.New()
	log := r.Logger.WithFields(logrus.Fields{
		"run":     id.String(),
		"shape":   g.Shape().String(),
		"block":   s.BlockSize,
		"workers": plan.Workers,
	})

	want := -1
	seq := make([]float64, s.Trials)
	for i := range seq {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		start := r.now()
		n := count.Satisfying(g, r.Pred)
		seq[i] = float64(r.now().Sub(start))
		want = n
		log.Debugf("sequential trial %d: count %d in %s", i, n, time.Duration(seq[i]))
	}

	par := make([]float64, s.Trials)
	for i := range par {
		start := r.now()
		n, err := count.SatisfyingParallelContext(ctx, g, r.Pred, opts...)
		if err != nil {
			return Report{}, fmt.Errorf("bench: parallel trial %d: %w", i, err)
		}
		par[i] = float64(r.now().Sub(start))
		if n != want {
			return Report{}, fmt.Errorf("%w: sequential %d, parallel %d", ErrMismatch, want, n)
		}
		log.Debugf("parallel trial %d: count %d in %s", i, n, time.Duration(par[i]))
	}

	rep := Report{
		ID:         id,
		Shape:      g.Shape(),
		BlockSize:  s.BlockSize,
		Workers:    plan.Workers,
		Trials:     s.Trials,
		Count:      want,
		Sequential: summarize(seq),
		Parallel:   summarize(par),
	}
	log.WithFields(logrus.Fields{
		"count":      rep.Count,
		"sequential": rep.Sequential.Mean,
		"parallel":   rep.Parallel.Mean,
		"speedup":    rep.Speedup(),
	}).Info("scenario complete")
	return rep, nil
}

// summarize reduces nanosecond samples. xs must not be empty.
func summarize(xs []float64) Stats {
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		std = 0
	}
	return Stats{
		Mean:   time.Duration(mean),
		StdDev: time.Duration(std),
		Min:    time.Duration(floats.Min(xs)),
		Max:    time.Duration(floats.Max(xs)),
	}
}
