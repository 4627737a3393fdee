package aco

import (
	"fmt"

	"github.com/chaitanya176/aco-last-mile/internal/optimization"
)

// ValidateTour checks that visited is a Hamiltonian cycle over n nodes: a
// permutation of {0..n-1}, implicitly closed back to visited[0].
func ValidateTour(visited []int, n int) error {
	if len(visited) != n || n < 2 {
		return optimization.DegenerateGraphf("tour has %d nodes, want %d", len(visited), n).
			WithOperation("validate tour")
	}
	seen := make([]bool, n)
	for k, v := range visited {
		if v < 0 || v >= n {
			return optimization.NewError(fmt.Sprintf("position %d: node %d out of range", k, v)).
				WithOperation("validate tour")
		}
		if seen[v] {
			return optimization.NewError(fmt.Sprintf("position %d: node %d visited twice", k, v)).
				WithOperation("validate tour")
		}
		seen[v] = true
	}
	return nil
}

// TourLength sums the edges of the closed tour visited over w.
func TourLength[N comparable](w *World[N], visited []int) float64 {
	var total float64
	for k := range visited {
		total += w.Distance(visited[k], visited[(k+1)%len(visited)])
	}
	return total
}
