package opt

import "math/rand/v2"

// Person is a candidate solution. Lower fitness is better.
//
// P is the concrete candidate type itself (usually a pointer), which lets
// Clone return a value the engine can keep without type assertions.
type Person[P any] interface {
	// Fitness returns the cached cost of this candidate
	Fitness() float64

	// IsOptimal reports whether the candidate is good enough to stop the search
	IsOptimal() bool

	// UpdateFitness overwrites the cached cost
	UpdateFitness(fitness float64)

	// Clone returns an independent deep copy
	Clone() P
}

// Seeder is the domain adapter that creates and scores candidates.
//
// Evaluate and RandomPerson may be called from several goroutines at once
// during a mutation batch, so implementations must not mutate shared state.
type Seeder[P Person[P]] interface {
	// InitialPopulation creates size fresh candidates with their fitness set
	InitialPopulation(rng *rand.Rand, size int) []P

	// Evaluate returns the cost of p without modifying it
	Evaluate(p P) float64

	// RandomPerson creates one fresh candidate with its fitness set
	RandomPerson(rng *rand.Rand) P
}

// GenomePerson is a Person whose encoding is a flat gene slice.
// Genes must return a mutable view into the candidate's own storage.
type GenomePerson[P any, G any] interface {
	Person[P]
	Genes() []G
}
