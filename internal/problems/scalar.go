package problems

import (
	"fmt"
	"math/rand/v2"

	"github.com/cwbudde/sagaopt/internal/opt"
	"github.com/cwbudde/sagaopt/internal/store"
)

const defaultScalarBound = 100

// Scalar is an integer candidate whose cost is |X|.
type Scalar struct {
	X       int
	fitness float64
}

func (s *Scalar) Fitness() float64        { return s.fitness }
func (s *Scalar) IsOptimal() bool         { return s.fitness == 0 }
func (s *Scalar) UpdateFitness(f float64) { s.fitness = f }
func (s *Scalar) String() string          { return fmt.Sprintf("x=%d", s.X) }

func (s *Scalar) Clone() *Scalar {
	c := *s
	return &c
}

// ScalarSeeder draws integers uniformly from [-Bound, Bound].
type ScalarSeeder struct {
	Bound int
}

func (s ScalarSeeder) InitialPopulation(rng *rand.Rand, size int) []*Scalar {
	population := make([]*Scalar, size)
	for i := range population {
		population[i] = s.RandomPerson(rng)
	}
	return population
}

func (s ScalarSeeder) Evaluate(p *Scalar) float64 {
	if p.X < 0 {
		return float64(-p.X)
	}
	return float64(p.X)
}

func (s ScalarSeeder) RandomPerson(rng *rand.Rand) *Scalar {
	p := &Scalar{X: rng.IntN(2*s.Bound+1) - s.Bound}
	p.fitness = s.Evaluate(p)
	return p
}

// ScalarStep moves X by one in a random direction, staying within [-Bound, Bound].
type ScalarStep struct {
	Bound int
}

func (m ScalarStep) Mutate(rng *rand.Rand, p *Scalar, _ opt.Seeder[*Scalar]) {
	step := 1
	if rng.IntN(2) == 0 {
		step = -1
	}
	p.X = min(max(p.X+step, -m.Bound), m.Bound)
}

// ScalarMidpoint returns the midpoint of the parents, rounding odd sums at random.
var ScalarMidpoint = opt.CrossoverFunc[*Scalar](func(rng *rand.Rand, a, b *Scalar) *Scalar {
	sum := a.X + b.X
	x := sum / 2
	if sum%2 != 0 && rng.IntN(2) == 0 {
		if sum > 0 {
			x++
		} else {
			x--
		}
	}
	return &Scalar{X: x}
})

// NewScalarProblem bundles the scalar operators for the given bound.
func NewScalarProblem(bound int) opt.Problem[*Scalar] {
	return opt.NewProblem[*Scalar](ScalarSeeder{Bound: bound}, ScalarMidpoint, ScalarStep{Bound: bound})
}

func runScalar(cfg store.JobConfig, observer opt.Observer) (Outcome, error) {
	bound := dimensionOr(cfg, defaultScalarBound)
	return solve(cfg, NewScalarProblem(bound), observer)
}
