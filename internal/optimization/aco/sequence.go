package aco

import (
	"context"
	"iter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Solution is an immutable snapshot of the best tour known after an
// iteration. Its slices are copies owned by the caller.
type Solution[N comparable] struct {
	// Iteration is the 1-based iteration that emitted this snapshot.
	Iteration int
	// Tour lists the nodes in visiting order; the tour closes back to Tour[0].
	Tour []N
	// Visited lists the same order as node indices.
	Visited []int
	// Distance is the closed tour length.
	Distance float64
	// FoundAt is the iteration in which this tour was first built.
	FoundAt int

	// IterationBest, Mean and StdDev summarize the tours built during
	// Iteration alone.
	IterationBest float64
	Mean          float64
	StdDev        float64
}

type sequenceState int

const (
	stateIdle sequenceState = iota
	stateRunning
	stateDone
)

// Sequence is a lazy, finite, forward-only series of best-so-far solutions.
// It is not safe for concurrent use and cannot be restarted; ask the Solver
// for a new one instead.
type Sequence[N comparable] struct {
	solver *Solver[N]
	world  *World[N]
	seed   int64

	state     sequenceState
	iteration int

	// field is the desirability snapshot ants read during construction.
	field    *mat.SymDense
	builders []*antBuilder

	elite   *Ant[N]
	foundAt int
	current *Solution[N]
	err     error
}

func newSequence[N comparable](s *Solver[N], world *World[N], seed int64) *Sequence[N] {
	n := world.Len()
	workers := min(s.cfg.Workers, s.cfg.AntCount)
	field := mat.NewSymDense(n, nil)

	builders := make([]*antBuilder, workers)
	for w := range builders {
		builders[w] = newAntBuilder(field, n)
	}

	return &Sequence[N]{
		solver:   s,
		world:    world,
		seed:     seed,
		field:    field,
		builders: builders,
	}
}

// Next runs one iteration and reports whether a new solution is available.
// It returns false once Limit solutions have been emitted, or when ctx is
// done before the iteration starts; a started iteration always completes.
func (q *Sequence[N]) Next(ctx context.Context) bool {
	if q.state == stateDone {
		return false
	}
	if q.iteration >= q.solver.cfg.Limit {
		q.state = stateDone
		return false
	}
	if err := ctx.Err(); err != nil {
		q.err = err
		q.state = stateDone
		return false
	}

	q.state = stateRunning
	q.step()
	return true
}

// Solution returns the latest emitted solution, or nil before the first call
// to Next.
func (q *Sequence[N]) Solution() *Solution[N] {
	return q.current
}

// Iteration returns the number of completed iterations.
func (q *Sequence[N]) Iteration() int {
	return q.iteration
}

// Done reports whether the sequence is exhausted.
func (q *Sequence[N]) Done() bool {
	return q.state == stateDone
}

// Err returns the context error that stopped the sequence early, if any.
func (q *Sequence[N]) Err() error {
	return q.err
}

// All adapts the sequence to range-over-func. Breaking out of the loop leaves
// the sequence where it stopped; ranging again continues from there.
func (q *Sequence[N]) All(ctx context.Context) iter.Seq[*Solution[N]] {
	return func(yield func(*Solution[N]) bool) {
		for q.Next(ctx) {
			if !yield(q.current) {
				return
			}
		}
	}
}

func (q *Sequence[N]) step() {
	started := time.Now()
	cfg := q.solver.cfg
	q.iteration++
	k := q.iteration

	q.world.desirability(q.field, cfg.Alpha, cfg.Beta)
	ants, stalls := q.construct(k)

	// every ant is built; the pheromone field may change now
	for _, e := range q.world.edges {
		e.Evaporate(cfg.Rho)
	}
	for _, ant := range ants {
		deposit(ant, cfg.Q)
	}
	if q.elite != nil {
		deposit(q.elite, cfg.Elite*cfg.Q)
	}

	best := ants[0]
	distances := make([]float64, len(ants))
	for i, ant := range ants {
		distances[i] = ant.distance
		if ant.distance < best.distance {
			best = ant
		}
	}

	improved := q.elite == nil || best.distance < q.elite.distance
	if improved {
		q.elite = best
		q.foundAt = k
	}

	mean, std := stat.MeanStdDev(distances, nil)
	if len(distances) < 2 {
		std = 0
	}

	q.current = &Solution[N]{
		Iteration:     k,
		Tour:          q.elite.Tour(),
		Visited:       q.elite.Visited(),
		Distance:      q.elite.distance,
		FoundAt:       q.foundAt,
		IterationBest: best.distance,
		Mean:          mean,
		StdDev:        std,
	}

	elapsed := time.Since(started)
	q.solver.logger.Debug("iteration complete",
		zap.Int("iteration", k),
		zap.Float64("best_distance", q.elite.distance),
		zap.Float64("iteration_best", best.distance),
		zap.Bool("improved", improved),
		zap.Int("stalls", stalls),
		zap.Duration("elapsed", elapsed),
	)
	if q.solver.observer != nil {
		q.solver.observer.ObserveIteration(IterationStats{
			Iteration:     k,
			BestDistance:  q.elite.distance,
			IterationBest: best.distance,
			Improved:      improved,
			Stalls:        stalls,
			Duration:      elapsed,
		})
	}
}

// construct builds the colony of iteration k. Worker w builds ants w,
// w+workers, ... with its own scratch space; ants only read q.field and the
// immutable edge distances.
func (q *Sequence[N]) construct(k int) ([]*Ant[N], int) {
	cfg := q.solver.cfg
	ants := make([]*Ant[N], cfg.AntCount)
	workers := len(q.builders)

	var g errgroup.Group
	for w, b := range q.builders {
		b.stalls = 0
		g.Go(func() error {
			for i := w; i < len(ants); i += workers {
				ants[i] = build(b, q.world, cfg.Start, antRNG(q.seed, k, i))
			}
			return nil
		})
	}
	_ = g.Wait()

	stalls := 0
	for _, b := range q.builders {
		stalls += b.stalls
	}
	return ants, stalls
}

// deposit spreads budget/length over every edge of the ant's tour.
func deposit[N comparable](ant *Ant[N], budget float64) {
	if ant.distance <= 0 {
		return
	}
	amount := budget / ant.distance
	for e := range ant.Edges() {
		e.Deposit(amount)
	}
}
