package aco

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaitanya176/aco-last-mile/internal/optimization"
)

type recordingObserver struct {
	stats []IterationStats
}

func (r *recordingObserver) ObserveIteration(s IterationStats) {
	r.stats = append(r.stats, s)
}

func randomPoints(n int, seed uint64) []point {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	pts := make([]point, n)
	for i := range pts {
		pts[i] = point{rng.Float64() * 100, rng.Float64() * 100}
	}
	return pts
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Limit = 20
	cfg.AntCount = 5
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, valid: true},
		{name: "rho zero", mutate: func(c *Config) { c.Rho = 0 }, valid: true},
		{name: "rho one", mutate: func(c *Config) { c.Rho = 1 }, valid: true},
		{name: "elite zero", mutate: func(c *Config) { c.Elite = 0 }, valid: true},
		{name: "fixed start", mutate: func(c *Config) { c.Start = 3 }, valid: true},
		{name: "negative alpha", mutate: func(c *Config) { c.Alpha = -0.1 }},
		{name: "negative beta", mutate: func(c *Config) { c.Beta = -1 }},
		{name: "rho below zero", mutate: func(c *Config) { c.Rho = -0.01 }},
		{name: "rho above one", mutate: func(c *Config) { c.Rho = 1.01 }},
		{name: "zero q", mutate: func(c *Config) { c.Q = 0 }},
		{name: "zero t0", mutate: func(c *Config) { c.T0 = 0 }},
		{name: "zero limit", mutate: func(c *Config) { c.Limit = 0 }},
		{name: "zero ants", mutate: func(c *Config) { c.AntCount = 0 }},
		{name: "negative elite", mutate: func(c *Config) { c.Elite = -0.5 }},
		{name: "nan alpha", mutate: func(c *Config) { c.Alpha = math.NaN() }},
		{name: "infinite q", mutate: func(c *Config) { c.Q = math.Inf(1) }},
		{name: "bad start", mutate: func(c *Config) { c.Start = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			s, err := NewSolver[point](cfg)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, cfg.Limit, s.Config().Limit)
				return
			}
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, optimization.ErrInvalidConfiguration), "got %v", err)
		})
	}
}

func TestNewSolverNormalizesWorkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	s, err := NewSolver[point](cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Config().Workers)
}

func TestSolutionsRejectsStartOutsideWorld(t *testing.T) {
	cfg := testConfig()
	cfg.Start = 3
	s, err := NewSolver[point](cfg)
	require.NoError(t, err)

	w, err := NewWorld(triangle, euclid)
	require.NoError(t, err)

	_, err = s.Solutions(w)
	assert.True(t, errors.Is(err, optimization.ErrInvalidConfiguration))

	_, err = s.Solutions(nil)
	assert.True(t, errors.Is(err, optimization.ErrDegenerateGraph))
}

func TestRightTriangle(t *testing.T) {
	w, err := NewWorld(triangle, euclid)
	require.NoError(t, err)
	s, err := NewSolver[point](testConfig())
	require.NoError(t, err)

	sol, err := s.Solve(context.Background(), w)
	require.NoError(t, err)
	require.NotNil(t, sol)

	assert.InDelta(t, 2+math.Sqrt2, sol.Distance, 1e-9)
	require.NoError(t, ValidateTour(sol.Visited, 3))
	assert.Equal(t, 20, sol.Iteration)
}

func TestUnitSquareConverges(t *testing.T) {
	w, err := NewWorld(square, euclid)
	require.NoError(t, err)

	s, err := NewSolver[point](Config{
		Alpha:    1,
		Beta:     3,
		Rho:      0.4,
		Q:        1,
		Elite:    0.5,
		T0:       0.01,
		Limit:    200,
		AntCount: 20,
		Seed:     1,
		Start:    StartRandom,
	})
	require.NoError(t, err)

	sol, err := s.Solve(context.Background(), w)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, sol.Distance, 1e-6)
	require.NoError(t, ValidateTour(sol.Visited, 4))
}

func TestSolutionsInvariants(t *testing.T) {
	nodes := randomPoints(15, 3)
	w, err := NewWorld(nodes, euclid)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Limit = 40
	observer := &recordingObserver{}
	s, err := NewSolver[point](cfg, WithObserver(observer))
	require.NoError(t, err)

	seq, err := s.Solutions(w)
	require.NoError(t, err)
	assert.Nil(t, seq.Solution())

	count := 0
	previous := math.Inf(1)
	for sol := range seq.All(context.Background()) {
		count++
		assert.Equal(t, count, sol.Iteration)
		require.NoError(t, ValidateTour(sol.Visited, len(nodes)))
		require.Len(t, sol.Tour, len(nodes))
		for k, idx := range sol.Visited {
			assert.Equal(t, nodes[idx], sol.Tour[k])
		}
		assert.InDelta(t, TourLength(w, sol.Visited), sol.Distance, 1e-9)
		assert.LessOrEqual(t, sol.Distance, previous, "best-so-far never worsens")
		assert.LessOrEqual(t, sol.Distance, sol.IterationBest+1e-12)
		assert.LessOrEqual(t, sol.FoundAt, sol.Iteration)
		assert.GreaterOrEqual(t, sol.StdDev, 0.0)
		previous = sol.Distance

		for _, e := range w.Edges() {
			require.GreaterOrEqual(t, e.Pheromone, 0.0)
		}
	}

	assert.Equal(t, cfg.Limit, count, "exactly limit solutions")
	assert.True(t, seq.Done())
	assert.False(t, seq.Next(context.Background()), "sequence does not restart")
	assert.NoError(t, seq.Err())
	assert.Len(t, observer.stats, cfg.Limit)
	assert.Equal(t, cfg.Limit, seq.Iteration())
}

func TestSolutionSnapshotsAreCopies(t *testing.T) {
	w, err := NewWorld(triangle, euclid)
	require.NoError(t, err)

	// from a fixed start both triangle tours sum the same edges in the same
	// order, so the elite found first is never replaced
	cfg := testConfig()
	cfg.Start = 0
	s, err := NewSolver[point](cfg)
	require.NoError(t, err)

	seq, err := s.Solutions(w)
	require.NoError(t, err)
	require.True(t, seq.Next(context.Background()))

	first := seq.Solution()
	want := append([]int(nil), first.Visited...)
	first.Visited[1] = 99
	first.Tour[1] = point{-1, -1}

	require.True(t, seq.Next(context.Background()))
	second := seq.Solution()
	assert.NotSame(t, first, second)
	assert.Equal(t, want, second.Visited)
	assert.Equal(t, 1, second.FoundAt)
}

func TestAlphaZeroReproducible(t *testing.T) {
	nodes := randomPoints(10, 9)
	cfg := testConfig()
	cfg.Alpha = 0
	cfg.AntCount = 1
	cfg.Limit = 1
	cfg.Seed = 1234

	solve := func() *Solution[point] {
		w, err := NewWorld(nodes, euclid)
		require.NoError(t, err)
		s, err := NewSolver[point](cfg)
		require.NoError(t, err)
		sol, err := s.Solve(context.Background(), w)
		require.NoError(t, err)
		return sol
	}

	a, b := solve(), solve()
	assert.Equal(t, a.Visited, b.Visited)
	assert.Equal(t, a.Distance, b.Distance)
}

func TestWorkersDoNotChangeResults(t *testing.T) {
	nodes := randomPoints(20, 5)

	run := func(workers int) []*Solution[point] {
		cfg := testConfig()
		cfg.AntCount = 8
		cfg.Limit = 25
		cfg.Seed = 7
		cfg.Workers = workers

		w, err := NewWorld(nodes, euclid)
		require.NoError(t, err)
		s, err := NewSolver[point](cfg)
		require.NoError(t, err)
		seq, err := s.Solutions(w)
		require.NoError(t, err)

		var out []*Solution[point]
		for sol := range seq.All(context.Background()) {
			out = append(out, sol)
		}
		return out
	}

	serial, parallel := run(1), run(3)
	require.Len(t, parallel, len(serial))
	for i := range serial {
		assert.Equal(t, serial[i].Visited, parallel[i].Visited, "iteration %d", i+1)
		assert.Equal(t, serial[i].Distance, parallel[i].Distance, "iteration %d", i+1)
		assert.Equal(t, serial[i].Mean, parallel[i].Mean, "iteration %d", i+1)
	}
}

func TestFixedStart(t *testing.T) {
	w, err := NewWorld(randomPoints(8, 1), euclid)
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Start = 5
	s, err := NewSolver[point](cfg)
	require.NoError(t, err)

	seq, err := s.Solutions(w)
	require.NoError(t, err)
	for sol := range seq.All(context.Background()) {
		assert.Equal(t, 5, sol.Visited[0])
	}
}

func TestEvaporationAndDeposit(t *testing.T) {
	d := 2 + math.Sqrt2

	tests := []struct {
		name     string
		rho      float64
		limit    int
		expected float64
	}{
		// on a triangle every edge is on every tour
		{name: "rho zero keeps t0", rho: 0, limit: 1, expected: 0.01 + 1/d},
		{name: "rho one keeps deposit only", rho: 1, limit: 1, expected: 1 / d},
		{name: "elite reinforcement from second iteration", rho: 1, limit: 2, expected: 1/d + 0.5/d},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWorld(triangle, euclid)
			require.NoError(t, err)

			cfg := testConfig()
			cfg.Rho = tt.rho
			cfg.Q = 1
			cfg.Elite = 0.5
			cfg.T0 = 0.01
			cfg.AntCount = 1
			cfg.Limit = tt.limit
			s, err := NewSolver[point](cfg)
			require.NoError(t, err)

			_, err = s.Solve(context.Background(), w)
			require.NoError(t, err)

			for _, e := range w.Edges() {
				assert.InDelta(t, tt.expected, e.Pheromone, 1e-12)
			}
		})
	}
}

func TestSolutionsResetsPheromone(t *testing.T) {
	w, err := NewWorld(square, euclid)
	require.NoError(t, err)
	for _, e := range w.Edges() {
		e.Deposit(5)
	}

	cfg := testConfig()
	cfg.T0 = 0.3
	s, err := NewSolver[point](cfg)
	require.NoError(t, err)

	_, err = s.Solutions(w)
	require.NoError(t, err)
	for _, e := range w.Edges() {
		assert.Equal(t, 0.3, e.Pheromone)
	}
}

func TestZeroLengthToursStallButComplete(t *testing.T) {
	w, err := NewWorld([]int{1, 2, 3, 4}, func(a, b int) float64 { return 0 })
	require.NoError(t, err)

	cfg := testConfig()
	cfg.AntCount = 2
	cfg.Limit = 3
	observer := &recordingObserver{}
	s, err := NewSolver[int](cfg, WithObserver(observer))
	require.NoError(t, err)

	sol, err := s.Solve(context.Background(), w)
	require.NoError(t, err)
	require.NoError(t, ValidateTour(sol.Visited, 4))
	assert.Equal(t, 0.0, sol.Distance)

	require.Len(t, observer.stats, 3)
	for _, st := range observer.stats {
		assert.Equal(t, cfg.AntCount*(w.Len()-1), st.Stalls)
	}
	for _, e := range w.Edges() {
		assert.False(t, math.IsInf(e.Pheromone, 0) || math.IsNaN(e.Pheromone))
	}
}

func TestSequenceCancellation(t *testing.T) {
	w, err := NewWorld(square, euclid)
	require.NoError(t, err)
	s, err := NewSolver[point](testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq, err := s.Solutions(w)
	require.NoError(t, err)
	assert.False(t, seq.Next(ctx))
	assert.ErrorIs(t, seq.Err(), context.Canceled)
	assert.False(t, seq.Next(context.Background()), "a stopped sequence stays stopped")

	sol, err := s.Solve(ctx, w)
	assert.Nil(t, sol)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSequenceResumesAfterBreak(t *testing.T) {
	w, err := NewWorld(square, euclid)
	require.NoError(t, err)
	s, err := NewSolver[point](testConfig())
	require.NoError(t, err)

	seq, err := s.Solutions(w)
	require.NoError(t, err)

	var iterations []int
	for sol := range seq.All(context.Background()) {
		iterations = append(iterations, sol.Iteration)
		if len(iterations) == 3 {
			break
		}
	}
	for sol := range seq.All(context.Background()) {
		iterations = append(iterations, sol.Iteration)
	}

	require.Len(t, iterations, 20)
	for i, k := range iterations {
		assert.Equal(t, i+1, k)
	}
}

func BenchmarkIteration(b *testing.B) {
	w, err := NewWorld(randomPoints(38, 1), euclid)
	require.NoError(b, err)

	cfg := DefaultConfig()
	cfg.Seed = 1
	cfg.Limit = b.N
	s, err := NewSolver[point](cfg)
	require.NoError(b, err)

	seq, err := s.Solutions(w)
	require.NoError(b, err)

	b.ResetTimer()
	for seq.Next(context.Background()) {
	}
}
