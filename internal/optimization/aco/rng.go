package aco

import (
	"math/rand/v2"
	"time"
)

// resolveSeed turns the configured seed into the run seed. Zero means "pick
// one from the clock"; any other value is used verbatim.
func resolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// deriveSeed mixes a run seed with a stream id using the SplitMix64 finalizer
// so neighbouring stream ids yield uncorrelated generators.
func deriveSeed(parent int64, stream uint64) uint64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// antRNG returns the private random stream of one ant in one iteration.
// Streams depend only on (seed, iteration, ant), never on scheduling.
func antRNG(seed int64, iteration, ant int) *rand.Rand {
	stream := uint64(iteration)<<32 | uint64(uint32(ant))
	return rand.New(rand.NewPCG(deriveSeed(seed, stream), stream))
}
