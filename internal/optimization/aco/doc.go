// Package aco approximates Traveling Salesman tours with Ant Colony
// Optimization.
//
// A World is the complete graph over the caller's nodes. Every Edge carries an
// immutable distance and a mutable pheromone level. A Solver drives a Sequence
// over a World: each iteration a colony of ants builds closed tours against a
// frozen snapshot of edge desirability, then the sequence evaporates pheromone,
// lets every ant deposit q/length along its tour, reinforces the elite (best
// known) tour and emits the best-so-far Solution.
//
// The emitted distances never increase, so the last Solution of a sequence is
// the best one found.
//
//	world, err := aco.NewWorld(points, dataset.Euclidean)
//	solver, err := aco.NewSolver[dataset.Point](aco.DefaultConfig())
//	seq, err := solver.Solutions(world)
//	for sol := range seq.All(ctx) {
//		fmt.Println(sol.Iteration, sol.Distance)
//	}
//
// Ant construction within one iteration may run on several goroutines
// (Config.Workers). Each ant draws from its own random stream derived from
// (seed, iteration, ant), so a fixed seed reproduces the same run regardless
// of the worker count. A World must not be shared by two sequences at once.
package aco
