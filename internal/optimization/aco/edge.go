package aco

import "math"

// Edge is the undirected connection between two nodes of a World.
// Start is always the smaller node index.
type Edge struct {
	Start     int
	End       int
	Distance  float64
	Pheromone float64
}

// Desirability returns pheromone^alpha * (1/distance)^beta.
// Zero-length edges and edges without pheromone are never desirable.
func (e *Edge) Desirability(alpha, beta float64) float64 {
	if e.Distance == 0 || e.Pheromone == 0 {
		return 0
	}
	return math.Pow(e.Pheromone, alpha) * math.Pow(1/e.Distance, beta)
}

// Evaporate decays the pheromone by the fraction rho, which must be in [0, 1].
func (e *Edge) Evaporate(rho float64) {
	e.Pheromone *= 1 - rho
}

// Deposit adds amount to the pheromone. Non-positive amounts are ignored.
func (e *Edge) Deposit(amount float64) {
	if amount <= 0 || math.IsNaN(amount) {
		return
	}
	e.Pheromone += amount
}
