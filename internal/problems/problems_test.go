package problems

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/sagaopt/internal/opt"
	"github.com/cwbudde/sagaopt/internal/store"
)

func quickConfig(problem string) store.JobConfig {
	cfg := DefaultJobConfig(problem)
	cfg.Seed = 17
	cfg.PopulationSize = 40
	cfg.DynastiesLimit = 60
	cfg.MaxStaleIterations = 5
	cfg.MaxMutationsPerDynasty = 16
	return cfg
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"queens", "rastrigin", "scalar", "sphere"}, Names())
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get("tsp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scalar")
}

func TestRegister_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() { Register("scalar", runScalar) })
}

func TestEngineConfig_RoundTripsDefaults(t *testing.T) {
	cfg := DefaultJobConfig("scalar")
	assert.Equal(t, opt.DefaultConfig(), EngineConfig(cfg))
}

func TestRun_Scalar(t *testing.T) {
	cfg := quickConfig("scalar")
	cfg.Dimension = 20

	var reports []opt.DynastyReport
	out, err := Run(cfg, func(r opt.DynastyReport) { reports = append(reports, r) })
	require.NoError(t, err)

	assert.Equal(t, "scalar", out.Problem)
	assert.Equal(t, opt.GoodEnough, out.Reason)
	assert.Equal(t, "x=0", out.Best)
	assert.Zero(t, out.Fitness)
	assert.LessOrEqual(t, len(reports), cfg.DynastiesLimit+1)
}

func TestRun_InitialTemperatureIsTheRunsOwn(t *testing.T) {
	cfg := quickConfig("scalar")
	cfg.Seed = 7

	out, err := Run(cfg, nil)
	require.NoError(t, err)

	o, err := opt.New(EngineConfig(cfg), NewScalarProblem(defaultScalarBound))
	require.NoError(t, err)
	res := o.Run()

	assert.Equal(t, res.InitialTemperature.Float64(), out.InitialTemperature)
	assert.Equal(t, res.Reason, out.Reason)
	assert.Equal(t, res.Best.String(), out.Best)
}

func TestRun_Queens(t *testing.T) {
	cfg := quickConfig("queens")
	cfg.Dimension = 6
	cfg.DynastiesLimit = 200

	out, err := Run(cfg, nil)
	require.NoError(t, err)

	if out.Reason == opt.GoodEnough {
		assert.Zero(t, out.Fitness)
	}
	assert.GreaterOrEqual(t, out.Fitness, 0.0)
}

func TestRun_QueensRejectsUnsolvableBoards(t *testing.T) {
	cfg := quickConfig("queens")
	cfg.Dimension = 3

	_, err := Run(cfg, nil)
	assert.Error(t, err)
}

func TestRun_SphereImproves(t *testing.T) {
	cfg := quickConfig("sphere")
	cfg.Dimension = 3
	cfg.Tolerance = 1e-2

	var first float64
	seen := false
	out, err := Run(cfg, func(r opt.DynastyReport) {
		if !seen {
			first, seen = r.BestFitness, true
		}
	})
	require.NoError(t, err)
	require.True(t, seen || out.Reason == opt.GoodEnough)

	if seen {
		assert.LessOrEqual(t, out.Fitness, first)
	}
	if out.Reason == opt.GoodEnough {
		assert.LessOrEqual(t, out.Fitness, cfg.Tolerance)
	}
}

func TestRun_ResetMutation(t *testing.T) {
	cfg := quickConfig("rastrigin")
	cfg.Dimension = 2
	cfg.Mutation = "reset"
	cfg.DynastiesLimit = 5

	_, err := Run(cfg, nil)
	require.NoError(t, err)

	cfg.Mutation = "cauchy"
	_, err = Run(cfg, nil)
	assert.Error(t, err)
}

func TestRun_InvalidEngineConfig(t *testing.T) {
	cfg := quickConfig("scalar")
	cfg.PopulationSize = 0

	_, err := Run(cfg, nil)
	var cfgErr *opt.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRun_Deterministic(t *testing.T) {
	cfg := quickConfig("rastrigin")
	cfg.Dimension = 4
	cfg.DynastiesLimit = 10

	a, err := Run(cfg, nil)
	require.NoError(t, err)
	cfg.Workers = 3
	b, err := Run(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, a.Best, b.Best)
	assert.Equal(t, a.Fitness, b.Fitness)
	assert.Equal(t, a.Reason, b.Reason)
}

func TestScalarOperators(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	seeder := ScalarSeeder{Bound: 3}

	for i := 0; i < 100; i++ {
		p := seeder.RandomPerson(rng)
		assert.GreaterOrEqual(t, p.X, -3)
		assert.LessOrEqual(t, p.X, 3)
		assert.Equal(t, math.Abs(float64(p.X)), p.Fitness())
	}

	edge := &Scalar{X: 3}
	step := ScalarStep{Bound: 3}
	for i := 0; i < 20; i++ {
		step.Mutate(rng, edge, seeder)
		assert.LessOrEqual(t, edge.X, 3)
		assert.GreaterOrEqual(t, edge.X, 2)
		edge.X = 3
	}

	child := ScalarMidpoint(rng, &Scalar{X: 2}, &Scalar{X: 6})
	assert.Equal(t, 4, child.X)
	child = ScalarMidpoint(rng, &Scalar{X: -2}, &Scalar{X: -1})
	assert.Contains(t, []int{-1, -2}, child.X)
}

func TestObjectives(t *testing.T) {
	assert.Equal(t, 0.0, Sphere([]float64{0, 0, 0}))
	assert.Equal(t, 14.0, Sphere([]float64{1, 2, 3}))
	assert.InDelta(t, 0.0, Rastrigin([]float64{0, 0}), 1e-12)
	assert.InDelta(t, 2.0, Rastrigin([]float64{1, 1}), 1e-9)

	_, err := LookupObjective("ackley")
	assert.Error(t, err)

	spec, err := LookupObjective("sphere")
	require.NoError(t, err)
	lower, upper := spec.Box(3)
	assert.Equal(t, []float64{-5.12, -5.12, -5.12}, lower)
	assert.Equal(t, []float64{5.12, 5.12, 5.12}, upper)
}

func TestVectorSeeder(t *testing.T) {
	_, err := NewVectorSeeder(nil, []float64{0}, []float64{1}, 0)
	assert.Error(t, err)
	_, err = NewVectorSeeder(Sphere, []float64{0, 0}, []float64{1}, 0)
	assert.Error(t, err)
	_, err = NewVectorSeeder(Sphere, []float64{1}, []float64{1}, 0)
	assert.Error(t, err)
	_, err = NewVectorSeeder(Sphere, []float64{0}, []float64{1}, -1)
	assert.Error(t, err)

	seeder, err := NewVectorSeeder(Sphere, []float64{-1, 2}, []float64{1, 3}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, seeder.Dim())

	rng := rand.New(rand.NewPCG(3, 4))
	for _, v := range seeder.InitialPopulation(rng, 50) {
		assert.GreaterOrEqual(t, v.X[0], -1.0)
		assert.Less(t, v.X[0], 1.0)
		assert.GreaterOrEqual(t, v.X[1], 2.0)
		assert.Less(t, v.X[1], 3.0)
		assert.Equal(t, Sphere(v.X), v.Fitness())
	}

	v := seeder.Seed([]float64{0.5, 0})
	assert.Equal(t, 0.25, v.Fitness())
	assert.True(t, v.IsOptimal())
	assert.Equal(t, "[0.5000 0.0000]", v.String())

	clone := v.Clone()
	clone.X[0] = 9
	assert.Equal(t, 0.5, v.X[0])
	assert.True(t, clone.IsOptimal(), "clone keeps tolerance")
}

func TestGaussianMutation_StaysInBox(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	m := GaussianMutation{Sigma: 2, Lower: []float64{0, 0}, Upper: []float64{1, 1}}
	require.NoError(t, m.Validate())

	v := &Vector{X: []float64{0.5, 0.5}}
	for i := 0; i < 200; i++ {
		m.Mutate(rng, v, nil)
		for _, x := range v.X {
			assert.GreaterOrEqual(t, x, 0.0)
			assert.LessOrEqual(t, x, 1.0)
		}
	}

	assert.Error(t, GaussianMutation{Sigma: 0}.Validate())
}

func TestConflicts(t *testing.T) {
	assert.Equal(t, 0, Conflicts([]int{1, 3, 0, 2}))
	assert.Equal(t, 6, Conflicts([]int{0, 1, 2, 3}))
	assert.Equal(t, 0, Conflicts(nil))
}

func isPermutation(rows []int) bool {
	sorted := slices.Clone(rows)
	slices.Sort(sorted)
	for i, r := range sorted {
		if r != i {
			return false
		}
	}
	return true
}

func TestQueensOperatorsKeepPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	seeder := QueensSeeder{N: 10}

	for i := 0; i < 200; i++ {
		a, b := seeder.RandomPerson(rng), seeder.RandomPerson(rng)
		aRows := slices.Clone(a.Rows)

		child := OrderCrossover(rng, a, b)
		require.True(t, isPermutation(child.Rows), "crossover child %v", child.Rows)
		assert.Equal(t, aRows, a.Rows, "parent must not change")

		SwapMutation(rng, child, seeder)
		require.True(t, isPermutation(child.Rows), "mutated child %v", child.Rows)
	}
}

func TestBoard(t *testing.T) {
	b := &Board{Rows: []int{1, 3, 0, 2}}
	b.UpdateFitness(QueensSeeder{N: 4}.Evaluate(b))

	assert.True(t, b.IsOptimal())
	assert.Equal(t, "1,3,0,2", b.String())

	c := b.Clone()
	c.Rows[0] = 9
	assert.Equal(t, 1, b.Rows[0])
}
