package optimization

import (
	"context"
	"time"
)

// Optimizer defines the interface for tour optimization runs
type Optimizer interface {
	// Optimize runs the optimization process until its iteration limit or
	// until ctx is cancelled
	Optimize(ctx context.Context) (*OptimizationResult, error)

	// GetBestSolution returns the best solution found so far
	GetBestSolution() *Solution

	// GetHistory returns one evaluation per completed iteration
	GetHistory() []Evaluation

	// Stop gracefully stops the optimization process
	Stop()
}

// Solution represents a closed tour over the node indices of a world.
type Solution struct {
	// Visited is the order in which node indices are visited. The tour closes
	// back to Visited[0].
	Visited []int
	// Distance is the total length including the closing edge.
	Distance float64
}

// Evaluation represents the outcome of a single iteration
type Evaluation struct {
	Iteration int
	// Solution is the best-so-far tour after this iteration
	Solution *Solution
	// FoundAt is the iteration in which Solution was first observed
	FoundAt int
	// IterationBest is the shortest tour built during this iteration only
	IterationBest float64
	Mean          float64
	StdDev        float64
	Elapsed       time.Duration
}

// OptimizationResult contains the result of an optimization run
type OptimizationResult struct {
	BestSolution *Solution
	History      []Evaluation
	Iterations   int
	// Completed is false when the run stopped before its iteration limit
	Completed bool
}
