package opt

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Selection chooses one breeding candidate from a population sorted ascending by fitness.
// The returned value is a clone the caller owns.
type Selection[P Person[P]] interface {
	Select(rng *rand.Rand, population []P) P
}

// SelectionFunc adapts a plain function to Selection.
type SelectionFunc[P Person[P]] func(rng *rand.Rand, population []P) P

func (f SelectionFunc[P]) Select(rng *rand.Rand, population []P) P {
	return f(rng, population)
}

// TournamentSelection samples Size distinct members and returns the best of them
// with probability Pressure, otherwise a uniformly random member of the sample.
type TournamentSelection[P Person[P]] struct {
	Size     int
	Pressure float64
}

// DefaultTournament returns the reference tournament settings.
func DefaultTournament[P Person[P]]() TournamentSelection[P] {
	return TournamentSelection[P]{
		Size:     4,
		Pressure: 0.8,
	}
}

func (s TournamentSelection[P]) Select(rng *rand.Rand, population []P) P {
	size := s.Size
	if size < 1 {
		size = 1
	}
	if size > len(population) {
		size = len(population)
	}

	// Partial Fisher-Yates over indices; the population is sorted, so the
	// smallest sampled index is the fittest contestant.
	indices := make([]int, len(population))
	for i := range indices {
		indices[i] = i
	}
	for i := 0; i < size; i++ {
		j := i + rng.IntN(len(indices)-i)
		indices[i], indices[j] = indices[j], indices[i]
	}
	contestants := indices[:size]

	if rng.Float64() < s.Pressure {
		return population[slices.Min(contestants)].Clone()
	}
	return population[contestants[rng.IntN(size)]].Clone()
}

// Validate checks the tournament parameters.
func (s TournamentSelection[P]) Validate() error {
	if s.Size < 1 {
		return &ConfigError{Field: "TournamentSelection.Size", Reason: "must be at least 1"}
	}
	if s.Pressure < 0 || s.Pressure > 1 {
		return &ConfigError{Field: "TournamentSelection.Pressure", Reason: fmt.Sprintf("must be in [0, 1], got %g", s.Pressure)}
	}
	return nil
}
