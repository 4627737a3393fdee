package aco

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/chaitanya176/aco-last-mile/internal/optimization"
)

// DefaultT0 is the initial pheromone level of a freshly built World.
const DefaultT0 = 0.01

// DistanceFunc returns the non-negative distance between two nodes.
// It is expected to be symmetric; the World only evaluates it once per pair.
type DistanceFunc[N comparable] func(a, b N) float64

// WorldOption configures NewWorld.
type WorldOption func(*worldOptions)

type worldOptions struct {
	t0 float64
}

// WithInitialPheromone sets the pheromone level every edge starts at.
func WithInitialPheromone(t0 float64) WorldOption {
	return func(o *worldOptions) {
		o.t0 = t0
	}
}

// World is the complete graph over a set of nodes.
type World[N comparable] struct {
	nodes    []N
	index    map[N]int
	edges    []*Edge
	distance DistanceFunc[N]
	t0       float64
}

// NewWorld builds one Edge for every unordered pair of nodes.
func NewWorld[N comparable](nodes []N, distance DistanceFunc[N], opts ...WorldOption) (*World[N], error) {
	o := worldOptions{t0: DefaultT0}
	for _, opt := range opts {
		opt(&o)
	}

	if len(nodes) < 2 {
		return nil, optimization.DegenerateGraphf("need at least 2 nodes, got %d", len(nodes)).
			WithComponent("world").WithOperation("build")
	}
	if distance == nil {
		return nil, optimization.InvalidConfigurationf("distance function is required").
			WithComponent("world").WithOperation("build")
	}
	if !(o.t0 > 0) || math.IsInf(o.t0, 0) {
		return nil, optimization.InvalidConfigurationf("t0 must be positive and finite, got %v", o.t0).
			WithComponent("world").WithOperation("build")
	}

	w := &World[N]{
		nodes:    append([]N(nil), nodes...),
		index:    make(map[N]int, len(nodes)),
		edges:    make([]*Edge, len(nodes)*(len(nodes)-1)/2),
		distance: distance,
		t0:       o.t0,
	}

	for i, n := range w.nodes {
		if prev, dup := w.index[n]; dup {
			return nil, optimization.DegenerateGraphf("node %d duplicates node %d", i, prev).
				WithComponent("world").WithOperation("build")
		}
		w.index[n] = i
	}

	for j := 1; j < len(w.nodes); j++ {
		for i := 0; i < j; i++ {
			d := distance(w.nodes[i], w.nodes[j])
			if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
				return nil, optimization.DegenerateGraphf("distance(%d, %d) = %v", i, j, d).
					WithComponent("world").WithOperation("build")
			}
			w.edges[pairIndex(i, j)] = &Edge{
				Start:     i,
				End:       j,
				Distance:  d,
				Pheromone: o.t0,
			}
		}
	}

	return w, nil
}

// pairIndex maps i < j onto the lower triangle stored row by row.
func pairIndex(i, j int) int {
	return j*(j-1)/2 + i
}

// Len returns the number of nodes.
func (w *World[N]) Len() int {
	return len(w.nodes)
}

// Nodes returns a copy of the nodes in input order.
func (w *World[N]) Nodes() []N {
	return append([]N(nil), w.nodes...)
}

// Node returns the node at index i.
func (w *World[N]) Node(i int) N {
	return w.nodes[i]
}

// Index returns the index of node n.
func (w *World[N]) Index(n N) (int, bool) {
	i, ok := w.index[n]
	return i, ok
}

// Edges returns every edge of the world. The edges are shared, not copied.
func (w *World[N]) Edges() []*Edge {
	return w.edges
}

// Edge returns the edge between node indices i and j in either order, or nil
// when i == j or either index is out of range.
func (w *World[N]) Edge(i, j int) *Edge {
	if i == j || i < 0 || j < 0 || i >= len(w.nodes) || j >= len(w.nodes) {
		return nil
	}
	if i > j {
		i, j = j, i
	}
	return w.edges[pairIndex(i, j)]
}

// EdgeBetween returns the edge between two node values.
func (w *World[N]) EdgeBetween(a, b N) (*Edge, bool) {
	i, ok := w.index[a]
	if !ok {
		return nil, false
	}
	j, ok := w.index[b]
	if !ok {
		return nil, false
	}
	e := w.Edge(i, j)
	return e, e != nil
}

// Distance returns the distance between node indices i and j.
func (w *World[N]) Distance(i, j int) float64 {
	if e := w.Edge(i, j); e != nil {
		return e.Distance
	}
	return 0
}

// InitialPheromone returns the level edges were initialized with.
func (w *World[N]) InitialPheromone() float64 {
	return w.t0
}

// ResetPheromone sets every edge back to t0 and makes t0 the new initial level.
func (w *World[N]) ResetPheromone(t0 float64) {
	w.t0 = t0
	for _, e := range w.edges {
		e.Pheromone = t0
	}
}

// desirability writes the current desirability of every edge into dst, which
// must be a len(nodes) x len(nodes) symmetric matrix. The diagonal stays zero.
func (w *World[N]) desirability(dst *mat.SymDense, alpha, beta float64) {
	for _, e := range w.edges {
		dst.SetSym(e.Start, e.End, e.Desirability(alpha, beta))
	}
}
