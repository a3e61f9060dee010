package problems

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/sagaopt/internal/opt"
	"github.com/cwbudde/sagaopt/internal/store"
)

const (
	defaultVectorDimension = 10
	defaultTolerance       = 1e-3
	defaultSigma           = 0.1
)

// Objective is a continuous cost function to minimize.
type Objective func(x []float64) float64

// Sphere is sum(x_i^2), minimal at the origin.
func Sphere(x []float64) float64 {
	return floats.Dot(x, x)
}

// Rastrigin is 10n + sum(x_i^2 - 10 cos(2 pi x_i)), minimal at the origin.
func Rastrigin(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum
}

// ObjectiveSpec describes a benchmark objective and its usual search box.
type ObjectiveSpec struct {
	Func  Objective
	Lower float64
	Upper float64
}

var objectives = map[string]ObjectiveSpec{
	"sphere":    {Func: Sphere, Lower: -5.12, Upper: 5.12},
	"rastrigin": {Func: Rastrigin, Lower: -5.12, Upper: 5.12},
}

// LookupObjective returns the benchmark objective registered under name.
func LookupObjective(name string) (ObjectiveSpec, error) {
	spec, ok := objectives[name]
	if !ok {
		return ObjectiveSpec{}, fmt.Errorf("unknown objective %q", name)
	}
	return spec, nil
}

// Box returns per-coordinate bounds for dim dimensions.
func (s ObjectiveSpec) Box(dim int) (lower, upper []float64) {
	lower = make([]float64, dim)
	upper = make([]float64, dim)
	for i := range lower {
		lower[i] = s.Lower
		upper[i] = s.Upper
	}
	return lower, upper
}

// Vector is a real-valued candidate. It is optimal once its cost is at or
// below the tolerance it was created with.
type Vector struct {
	X         []float64
	fitness   float64
	tolerance float64
}

func (v *Vector) Fitness() float64        { return v.fitness }
func (v *Vector) IsOptimal() bool         { return v.fitness <= v.tolerance }
func (v *Vector) UpdateFitness(f float64) { v.fitness = f }
func (v *Vector) Genes() []float64        { return v.X }

func (v *Vector) Clone() *Vector {
	return &Vector{
		X:         append([]float64(nil), v.X...),
		fitness:   v.fitness,
		tolerance: v.tolerance,
	}
}

func (v *Vector) String() string {
	parts := make([]string, len(v.X))
	for i, x := range v.X {
		parts[i] = strconv.FormatFloat(x, 'f', 4, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// VectorSeeder samples vectors uniformly inside a box and scores them with Objective.
type VectorSeeder struct {
	Objective Objective
	Lower     []float64
	Upper     []float64
	Tolerance float64
}

// NewVectorSeeder validates the box and returns a seeder.
func NewVectorSeeder(objective Objective, lower, upper []float64, tolerance float64) (VectorSeeder, error) {
	if objective == nil {
		return VectorSeeder{}, fmt.Errorf("objective is required")
	}
	if len(lower) == 0 || len(lower) != len(upper) {
		return VectorSeeder{}, fmt.Errorf("bounds must be non-empty and of equal length, got %d and %d", len(lower), len(upper))
	}
	for i := range lower {
		if !(lower[i] < upper[i]) {
			return VectorSeeder{}, fmt.Errorf("bound %d: lower %g must be below upper %g", i, lower[i], upper[i])
		}
	}
	if tolerance < 0 {
		return VectorSeeder{}, fmt.Errorf("tolerance cannot be negative")
	}
	return VectorSeeder{Objective: objective, Lower: lower, Upper: upper, Tolerance: tolerance}, nil
}

// Dim returns the number of coordinates.
func (s VectorSeeder) Dim() int {
	return len(s.Lower)
}

func (s VectorSeeder) InitialPopulation(rng *rand.Rand, size int) []*Vector {
	population := make([]*Vector, size)
	for i := range population {
		population[i] = s.RandomPerson(rng)
	}
	return population
}

func (s VectorSeeder) Evaluate(v *Vector) float64 {
	return s.Objective(v.X)
}

func (s VectorSeeder) RandomPerson(rng *rand.Rand) *Vector {
	x := make([]float64, s.Dim())
	for i := range x {
		x[i] = s.Lower[i] + rng.Float64()*(s.Upper[i]-s.Lower[i])
	}
	v := &Vector{X: x, tolerance: s.Tolerance}
	v.fitness = s.Evaluate(v)
	return v
}

// Seed wraps x as a scored candidate of this seeder.
func (s VectorSeeder) Seed(x []float64) *Vector {
	v := &Vector{X: append([]float64(nil), x...), tolerance: s.Tolerance}
	v.fitness = s.Evaluate(v)
	return v
}

// GaussianMutation perturbs one random coordinate by a normal step of
// Sigma times the coordinate range and clamps it to the box.
type GaussianMutation struct {
	Sigma float64
	Lower []float64
	Upper []float64
}

func (m GaussianMutation) Mutate(rng *rand.Rand, v *Vector, _ opt.Seeder[*Vector]) {
	if len(v.X) == 0 {
		return
	}
	i := rng.IntN(len(v.X))
	span := m.Upper[i] - m.Lower[i]
	v.X[i] = math.Min(math.Max(v.X[i]+rng.NormFloat64()*m.Sigma*span, m.Lower[i]), m.Upper[i])
}

// Validate checks the step size.
func (m GaussianMutation) Validate() error {
	if m.Sigma <= 0 {
		return &opt.ConfigError{Field: "GaussianMutation.Sigma", Reason: "must be positive"}
	}
	if len(m.Lower) != len(m.Upper) {
		return &opt.ConfigError{Field: "GaussianMutation.Lower/Upper", Reason: "length mismatch"}
	}
	return nil
}

// NewVectorProblem bundles uniform crossover with the named mutation
// ("gaussian" or "reset") for seeder.
func NewVectorProblem(seeder VectorSeeder, mutation string) (opt.Problem[*Vector], error) {
	var m opt.Mutation[*Vector]
	switch mutation {
	case "", "gaussian":
		m = GaussianMutation{Sigma: defaultSigma, Lower: seeder.Lower, Upper: seeder.Upper}
	case "reset":
		m = opt.RandomResetMutation[*Vector, float64]{Genes: 1}
	default:
		return opt.Problem[*Vector]{}, fmt.Errorf("unknown vector mutation %q", mutation)
	}
	return opt.NewProblem[*Vector](seeder, opt.UniformCrossover[*Vector, float64]{}, m), nil
}

func vectorRunner(name string) Runner {
	return func(cfg store.JobConfig, observer opt.Observer) (Outcome, error) {
		spec, err := LookupObjective(name)
		if err != nil {
			return Outcome{}, err
		}

		tolerance := cfg.Tolerance
		if tolerance == 0 {
			tolerance = defaultTolerance
		}
		lower, upper := spec.Box(dimensionOr(cfg, defaultVectorDimension))
		seeder, err := NewVectorSeeder(spec.Func, lower, upper, tolerance)
		if err != nil {
			return Outcome{}, fmt.Errorf("%s: %w", name, err)
		}

		problem, err := NewVectorProblem(seeder, cfg.Mutation)
		if err != nil {
			return Outcome{}, fmt.Errorf("%s: %w", name, err)
		}
		return solve(cfg, problem, observer)
	}
}
