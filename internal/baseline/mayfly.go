package baseline

import (
	"fmt"
	"math/rand"
	"slices"
	"sync/atomic"
	"time"

	"github.com/cwbudde/mayfly"
)

// minMayflyPopulation is the smallest population mayfly v0.1.0 accepts.
const minMayflyPopulation = 20

// Mayfly adapts the mayfly swarm optimizer to Minimizer.
type Mayfly struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a mayfly minimizer. popSize is raised to the library minimum.
func NewMayfly(maxIters, popSize int, seed int64) *Mayfly {
	return &Mayfly{
		maxIters: maxIters,
		popSize:  max(popSize, minMayflyPopulation),
		seed:     seed,
	}
}

func (m *Mayfly) Name() string { return "mayfly" }

// Minimize runs mayfly. The library only supports one scalar bound for all
// coordinates, so the box must be a hypercube.
func (m *Mayfly) Minimize(eval Objective, lower, upper []float64) (Result, error) {
	if err := checkBounds(lower, upper); err != nil {
		return Result{}, err
	}
	if slices.Min(lower) != slices.Max(lower) || slices.Min(upper) != slices.Max(upper) {
		return Result{}, fmt.Errorf("mayfly needs identical bounds for every coordinate")
	}

	var evaluations atomic.Int64

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = counting(eval, &evaluations)
	config.ProblemSize = len(lower)
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = lower[0]
	config.UpperBound = upper[0]
	config.Rand = rand.New(rand.NewSource(m.seed))

	start := time.Now()
	result, err := mayfly.Optimize(config)
	if err != nil {
		return Result{}, fmt.Errorf("mayfly: %w", err)
	}

	return Result{
		Minimizer:   m.Name(),
		Position:    result.GlobalBest.Position,
		Cost:        result.GlobalBest.Cost,
		Evaluations: evaluations.Load(),
		Elapsed:     time.Since(start),
	}, nil
}
