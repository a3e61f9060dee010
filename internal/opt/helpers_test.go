package opt

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
)

// point is a toy candidate on the integer line. Its cost is |x| unless the
// seeder is flat.
type point struct {
	x       int
	fitness float64
	optimal bool
}

func (p *point) Fitness() float64 { return p.fitness }
func (p *point) IsOptimal() bool { return p.optimal && p.fitness == 0 }
func (p *point) UpdateFitness(f float64) { p.fitness = f }
func (p *point) Clone() *point { c := *p; return &c }
func (p *point) String() string { return fmt.Sprintf("x=%d", p.x) }

type lineSeeder struct {
	bound        int
	flat         bool // every candidate costs 1
	neverOptimal bool
}

func (s lineSeeder) InitialPopulation(rng *rand.Rand, size int) []*point {
	population := make([]*point, size)
	for i := range population {
		population[i] = s.RandomPerson(rng)
	}
	return population
}

func (s lineSeeder) Evaluate(p *point) float64 {
	if s.flat {
		return 1
	}
	if p.x < 0 {
		return float64(-p.x)
	}
	return float64(p.x)
}

func (s lineSeeder) RandomPerson(rng *rand.Rand) *point {
	p := &point{x: rng.IntN(2*s.bound+1) - s.bound, optimal: !s.neverOptimal}
	p.fitness = s.Evaluate(p)
	return p
}

var stepMutation = MutationFunc[*point](func(rng *rand.Rand, p *point, _ Seeder[*point]) {
	if rng.IntN(2) == 0 {
		p.x++
	} else {
		p.x--
	}
})

var noopMutation = MutationFunc[*point](func(*rand.Rand, *point, Seeder[*point]) {})

var averageCrossover = CrossoverFunc[*point](func(_ *rand.Rand, a, b *point) *point {
	child := a.Clone()
	child.x = (a.x + b.x) / 2
	return child
})

// countingCrossover records how often it is invoked.
type countingCrossover struct {
	calls atomic.Int64
}

func (c *countingCrossover) Crossover(rng *rand.Rand, a, b *point) *point {
	c.calls.Add(1)
	return averageCrossover(rng, a, b)
}

func lineProblem(seeder lineSeeder) Problem[*point] {
	return NewProblem[*point](seeder, averageCrossover, stepMutation)
}

func testConfig() Config {
	return DefaultConfig().
		WithPopulationSize(20).
		WithDynastiesLimit(10).
		WithMaxStaleIterations(3).
		WithMaxMutationsPerDynasty(16).
		WithSeed(42)
}
