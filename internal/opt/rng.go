package opt

import (
	"math/rand/v2"
	"sync"
)

// defaultSeed is used when a config carries Seed == 0 so that runs stay reproducible.
const defaultSeed uint64 = 1

// Streams owns the random state of one optimization run.
//
// The primary stream serves the short sequential decisions (operator choice,
// tournament sampling, picking among vital mutants) and is guarded by a mutex.
// Parallel work never touches it; Fork hands out child streams derived from a
// single primary draw instead, so results do not depend on the worker count.
type Streams struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStreams creates the stream hierarchy for the given seed.
func NewStreams(seed uint64) *Streams {
	if seed == 0 {
		seed = defaultSeed
	}
	return &Streams{
		rng: rand.New(rand.NewPCG(seed, deriveSeed(seed, 0))),
	}
}

// Do runs fn with exclusive access to the primary stream.
// fn must not block or start parallel work.
func (s *Streams) Do(fn func(rng *rand.Rand)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.rng)
}

// Fork derives n independent child streams. Child i depends only on the
// primary stream state and on i.
func (s *Streams) Fork(n int) []*rand.Rand {
	s.mu.Lock()
	base := s.rng.Uint64()
	s.mu.Unlock()

	children := make([]*rand.Rand, n)
	for i := range children {
		children[i] = deriveRNG(base, uint64(i))
	}
	return children
}

// deriveRNG builds the child stream with the given index from a parent value.
func deriveRNG(parent, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(deriveSeed(parent, stream), deriveSeed(parent, ^stream)))
}

// deriveSeed mixes a parent value and a stream index with the SplitMix64 finalizer.
func deriveSeed(parent, stream uint64) uint64 {
	x := parent ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
