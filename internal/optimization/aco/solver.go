package aco

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/chaitanya176/aco-last-mile/internal/optimization"
)

// Config holds the solver hyperparameters. It is validated once by NewSolver
// and never changes afterwards.
type Config struct {
	// Alpha weights pheromone in the desirability of an edge.
	Alpha float64
	// Beta weights inverse distance in the desirability of an edge.
	Beta float64
	// Rho is the fraction of pheromone that evaporates each iteration.
	Rho float64
	// Q is the pheromone each ant spreads over its tour per iteration.
	Q float64
	// Elite scales the extra deposit on the best known tour.
	Elite float64
	// T0 is the pheromone level every edge is reset to when a solve starts.
	T0 float64
	// Limit is the number of iterations, and of emitted solutions.
	Limit int
	// AntCount is the number of ants per iteration.
	AntCount int

	// Seed fixes the random streams. Zero picks a seed from the clock.
	Seed int64
	// Workers is the number of goroutines building tours. Values below 1
	// mean 1.
	Workers int
	// Start is the node index every ant starts from, or StartRandom.
	Start int
}

// DefaultConfig returns the settings the demo CLI starts from.
func DefaultConfig() Config {
	return Config{
		Alpha:    1,
		Beta:     3,
		Rho:      0.4,
		Q:        1,
		Elite:    0.5,
		T0:       DefaultT0,
		Limit:    100,
		AntCount: 10,
		Workers:  1,
		Start:    StartRandom,
	}
}

// Validate reports the first hyperparameter that is out of range.
func (c Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return optimization.InvalidConfigurationf(format, args...).
			WithComponent("solver").WithOperation("validate")
	}
	finite := func(v float64) bool {
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	}

	switch {
	case !finite(c.Alpha) || c.Alpha < 0:
		return invalid("alpha must be >= 0, got %v", c.Alpha)
	case !finite(c.Beta) || c.Beta < 0:
		return invalid("beta must be >= 0, got %v", c.Beta)
	case !finite(c.Rho) || c.Rho < 0 || c.Rho > 1:
		return invalid("rho must be in [0, 1], got %v", c.Rho)
	case !finite(c.Q) || c.Q <= 0:
		return invalid("q must be > 0, got %v", c.Q)
	case !finite(c.Elite) || c.Elite < 0:
		return invalid("elite must be >= 0, got %v", c.Elite)
	case !finite(c.T0) || c.T0 <= 0:
		return invalid("t0 must be > 0, got %v", c.T0)
	case c.Limit <= 0:
		return invalid("limit must be > 0, got %d", c.Limit)
	case c.AntCount <= 0:
		return invalid("ant count must be > 0, got %d", c.AntCount)
	case c.Start < StartRandom:
		return invalid("start must be a node index or %d, got %d", StartRandom, c.Start)
	}
	return nil
}

// IterationStats describes one completed iteration.
type IterationStats struct {
	Iteration     int
	BestDistance  float64
	IterationBest float64
	Improved      bool
	Stalls        int
	Duration      time.Duration
}

// Observer receives progress from running sequences. Calls are made from the
// goroutine that drives the sequence.
type Observer interface {
	ObserveIteration(stats IterationStats)
}

// Option configures a Solver.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	observer Observer
}

// WithLogger sets the logger used for per-iteration debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver registers an observer notified after every iteration.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// Solver runs ant colony optimization over worlds of nodes of type N.
type Solver[N comparable] struct {
	cfg      Config
	logger   *zap.Logger
	observer Observer
}

// NewSolver validates cfg and returns a Solver.
func NewSolver[N comparable](cfg Config, opts ...Option) (*Solver[N], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Solver[N]{
		cfg:      cfg,
		logger:   o.logger,
		observer: o.observer,
	}, nil
}

// Config returns the validated configuration.
func (s *Solver[N]) Config() Config {
	return s.cfg
}

// Solutions resets the pheromone of world to T0 and returns a fresh sequence
// of exactly Limit best-so-far solutions. The sequence owns world until it is
// exhausted or abandoned.
func (s *Solver[N]) Solutions(world *World[N]) (*Sequence[N], error) {
	if world == nil {
		return nil, optimization.DegenerateGraphf("world is nil").
			WithComponent("solver").WithOperation("solutions")
	}
	if s.cfg.Start >= world.Len() {
		return nil, optimization.InvalidConfigurationf("start node %d out of range for %d nodes", s.cfg.Start, world.Len()).
			WithComponent("solver").WithOperation("solutions")
	}

	world.ResetPheromone(s.cfg.T0)

	seed := resolveSeed(s.cfg.Seed)
	s.logger.Debug("starting solve",
		zap.Int("nodes", world.Len()),
		zap.Int("limit", s.cfg.Limit),
		zap.Int("ants", s.cfg.AntCount),
		zap.Int("workers", s.cfg.Workers),
		zap.Int64("seed", seed),
	)

	return newSequence(s, world, seed), nil
}

// Solve drains a fresh sequence and returns its last, and therefore best,
// solution. When ctx is cancelled it returns the best solution so far, if
// any, together with the context error.
func (s *Solver[N]) Solve(ctx context.Context, world *World[N]) (*Solution[N], error) {
	seq, err := s.Solutions(world)
	if err != nil {
		return nil, err
	}
	for seq.Next(ctx) {
	}
	return seq.Solution(), seq.Err()
}
