package baseline

import (
	"sync/atomic"
	"time"

	"github.com/cwbudde/sagaopt/internal/opt"
	"github.com/cwbudde/sagaopt/internal/problems"
)

// Hybrid minimizes with the annealing genetic engine on real vectors.
type Hybrid struct {
	config    opt.Config
	mutation  string
	tolerance float64
}

// NewHybrid creates a hybrid minimizer. mutation selects the vector mutation
// operator ("gaussian" or "reset"); the search stops early once the cost is at
// or below tolerance.
func NewHybrid(config opt.Config, mutation string, tolerance float64) *Hybrid {
	return &Hybrid{config: config, mutation: mutation, tolerance: tolerance}
}

func (h *Hybrid) Name() string { return "hybrid" }

func (h *Hybrid) Minimize(eval Objective, lower, upper []float64) (Result, error) {
	if err := checkBounds(lower, upper); err != nil {
		return Result{}, err
	}

	var evaluations atomic.Int64
	seeder, err := problems.NewVectorSeeder(problems.Objective(counting(eval, &evaluations)), lower, upper, h.tolerance)
	if err != nil {
		return Result{}, err
	}
	problem, err := problems.NewVectorProblem(seeder, h.mutation)
	if err != nil {
		return Result{}, err
	}
	o, err := opt.New(h.config, problem)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	_, best := o.Optimize()

	return Result{
		Minimizer:   h.Name(),
		Position:    best.X,
		Cost:        best.Fitness(),
		Evaluations: evaluations.Load(),
		Elapsed:     time.Since(start),
	}, nil
}
