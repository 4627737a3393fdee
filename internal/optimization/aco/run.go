package aco

import (
	"context"
	"sync"
	"time"

	"github.com/chaitanya176/aco-last-mile/internal/optimization"
)

// Run binds a Solver to a World and implements optimization.Optimizer so the
// job server can drive, poll and stop it.
type Run[N comparable] struct {
	solver *Solver[N]
	world  *World[N]

	mu      sync.RWMutex
	best    *optimization.Solution
	history []optimization.Evaluation
	cancel  context.CancelFunc
	stopped bool
}

var _ optimization.Optimizer = (*Run[int])(nil)

// NewRun creates an optimizer for one solve of world.
func NewRun[N comparable](solver *Solver[N], world *World[N]) *Run[N] {
	return &Run[N]{
		solver:  solver,
		world:   world,
		history: make([]optimization.Evaluation, 0, min(solver.cfg.Limit, 1024)),
	}
}

// Optimize drains a fresh solution sequence, recording every iteration. When
// ctx is cancelled or Stop is called, the partial result is returned together
// with the context error.
func (r *Run[N]) Optimize(ctx context.Context) (*optimization.OptimizationResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil, context.Canceled
	}
	r.cancel = cancel
	r.mu.Unlock()

	seq, err := r.solver.Solutions(r.world)
	if err != nil {
		return nil, err
	}

	last := time.Now()
	for seq.Next(ctx) {
		sol := seq.Solution()
		now := time.Now()
		eval := optimization.Evaluation{
			Iteration: sol.Iteration,
			Solution: &optimization.Solution{
				Visited:  sol.Visited,
				Distance: sol.Distance,
			},
			FoundAt:       sol.FoundAt,
			IterationBest: sol.IterationBest,
			Mean:          sol.Mean,
			StdDev:        sol.StdDev,
			Elapsed:       now.Sub(last),
		}
		last = now

		r.mu.Lock()
		r.best = eval.Solution
		r.history = append(r.history, eval)
		r.mu.Unlock()
	}

	r.mu.RLock()
	result := &optimization.OptimizationResult{
		BestSolution: r.best,
		History:      append([]optimization.Evaluation(nil), r.history...),
		Iterations:   len(r.history),
		Completed:    seq.Err() == nil,
	}
	r.mu.RUnlock()

	return result, seq.Err()
}

// GetBestSolution returns the best solution found so far
func (r *Run[N]) GetBestSolution() *optimization.Solution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.best
}

// GetHistory returns a copy of the evaluations recorded so far
func (r *Run[N]) GetHistory() []optimization.Evaluation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]optimization.Evaluation(nil), r.history...)
}

// Stop cancels a running Optimize after its current iteration. A Run that was
// stopped before starting never starts.
func (r *Run[N]) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.cancel != nil {
		r.cancel()
	}
}
