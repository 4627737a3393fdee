package aco

import (
	"iter"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// StartRandom lets every ant pick its start node uniformly at random.
const StartRandom = -1

// Ant is one closed tour built during an iteration.
type Ant[N comparable] struct {
	world    *World[N]
	visited  []int
	distance float64
}

// Visited returns the visiting order as node indices.
func (a *Ant[N]) Visited() []int {
	return slices.Clone(a.visited)
}

// Tour returns the visiting order as node values.
func (a *Ant[N]) Tour() []N {
	tour := make([]N, len(a.visited))
	for k, i := range a.visited {
		tour[k] = a.world.nodes[i]
	}
	return tour
}

// Distance returns the tour length including the edge back to the start.
func (a *Ant[N]) Distance() float64 {
	return a.distance
}

// Edges yields every edge of the tour, the closing edge last.
func (a *Ant[N]) Edges() iter.Seq[*Edge] {
	return func(yield func(*Edge) bool) {
		n := len(a.visited)
		for k := 0; k < n; k++ {
			if !yield(a.world.Edge(a.visited[k], a.visited[(k+1)%n])) {
				return
			}
		}
	}
}

// antBuilder holds the scratch space for constructing tours. One builder is
// owned by one goroutine at a time.
type antBuilder struct {
	field      mat.Symmetric
	weights    []float64
	cumulative []float64
	unvisited  []int
	stalls     int
}

func newAntBuilder(field mat.Symmetric, n int) *antBuilder {
	return &antBuilder{
		field:      field,
		weights:    make([]float64, n),
		cumulative: make([]float64, n),
		unvisited:  make([]int, 0, n),
	}
}

// build constructs one tour over w. start is a node index or StartRandom.
func build[N comparable](b *antBuilder, w *World[N], start int, rng *rand.Rand) *Ant[N] {
	n := len(w.nodes)
	if start == StartRandom {
		start = rng.IntN(n)
	}

	ant := &Ant[N]{
		world:   w,
		visited: make([]int, 0, n),
	}
	ant.visited = append(ant.visited, start)

	b.unvisited = b.unvisited[:0]
	for i := 0; i < n; i++ {
		if i != start {
			b.unvisited = append(b.unvisited, i)
		}
	}

	current := start
	for len(b.unvisited) > 0 {
		k := b.choose(current, rng)
		next := b.unvisited[k]
		b.unvisited = slices.Delete(b.unvisited, k, k+1)

		ant.distance += w.Distance(current, next)
		ant.visited = append(ant.visited, next)
		current = next
	}
	ant.distance += w.Distance(current, start)

	return ant
}

// choose returns the position in b.unvisited of the next node to visit.
func (b *antBuilder) choose(current int, rng *rand.Rand) int {
	n := len(b.unvisited)
	weights := b.weights[:n]
	for k, j := range b.unvisited {
		weights[k] = b.field.At(current, j)
	}

	k, stalled := rouletteSelect(weights, b.cumulative[:n], rng)
	if stalled {
		b.stalls++
	}
	return k
}

// rouletteSelect samples an index with probability proportional to its
// weight: one uniform draw in [0, total) and the first index whose cumulative
// weight exceeds it. When the weights sum to zero, or to something that is not
// a finite number, it falls back to a uniform choice and reports a stall.
// cumulative is scratch space of the same length as weights.
func rouletteSelect(weights, cumulative []float64, rng *rand.Rand) (int, bool) {
	n := len(weights)
	floats.CumSum(cumulative, weights)
	total := cumulative[n-1]
	if !(total > 0) || math.IsInf(total, 1) {
		return rng.IntN(n), true
	}

	draw := rng.Float64() * total
	for k, c := range cumulative {
		if c > draw {
			return k, false
		}
	}

	// draw rounded up to total; take the last reachable index
	for k := n - 1; k >= 0; k-- {
		if weights[k] > 0 {
			return k, false
		}
	}
	return n - 1, false
}
