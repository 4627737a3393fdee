// Package dataset provides the demo coordinate sets and the planar distance
// used with them.
package dataset

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Point is a planar coordinate, or a latitude/longitude pair treated as one.
type Point [2]float64

// Euclidean returns the straight-line distance between a and b.
func Euclidean(a, b Point) float64 {
	return floats.Distance(a[:], b[:], 2)
}

// Triangle is a 45-45-90 triangle with unit legs.
var Triangle = []Point{
	{0, 0}, {1, 0}, {0, 1},
}

// Square is the unit square.
var Square = []Point{
	{0, 0}, {1, 0}, {0, 1}, {1, 1},
}

// SquareWithMidpoint is the unit square plus the middle of its left side.
var SquareWithMidpoint = []Point{
	{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 0.5},
}

// StateCollege holds 38 latitude/longitude stops around State College, PA.
var StateCollege = []Point{
	{40.489806, -78.403319},
	{40.808499, -77.895752},
	{40.803390, -77.883049},
	{40.792134, -77.867813},
	{40.800097, -77.867198},
	{40.831305, -77.843047},
	{40.823346, -77.874715},
	{40.814783, -77.854642},
	{40.808623, -77.855536},
	{40.807439, -77.856156},
	{40.803221, -77.861796},
	{40.803845, -77.865218},
	{40.797601, -77.866382},
	{40.793705, -77.868122},
	{40.792065, -77.863437},
	{40.793436, -77.860714},
	{40.793360, -77.859769},
	{40.798125, -77.855862},
	{40.798464, -77.855829},
	{40.794870, -77.860170},
	{40.794759, -77.860740},
	{40.793323, -77.862671},
	{40.779583, -77.879468},
	{40.773129, -77.856234},
	{40.778888, -77.853733},
	{40.780296, -77.850761},
	{40.783378, -77.837776},
	{40.783824, -77.827286},
	{40.785654, -77.834790},
	{40.798522, -77.860419},
	{40.804293, -77.854620},
	{40.801510, -77.861751},
	{40.799695, -77.869574},
	{40.798525, -77.870421},
	{40.797015, -77.870886},
	{40.797324, -77.868361},
	{40.813198, -77.906811},
	{40.832941, -77.800758},
}

var byID = map[int][]Point{
	3:  Triangle,
	4:  Square,
	5:  SquareWithMidpoint,
	38: StateCollege,
}

// IDs returns the dataset identifiers in ascending order.
func IDs() []int {
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Lookup returns a copy of the dataset with the given identifier.
func Lookup(id int) ([]Point, error) {
	pts, ok := byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %d, choose one of %v", id, IDs())
	}
	return slices.Clone(pts), nil
}
