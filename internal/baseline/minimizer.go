// Package baseline runs continuous minimizers behind one interface so the
// hybrid engine can be compared against a reference metaheuristic.
package baseline

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Objective is a continuous cost function to minimize.
type Objective func(x []float64) float64

// Result is the outcome of one minimization.
type Result struct {
	Minimizer   string        `json:"minimizer"`
	Position    []float64     `json:"position"`
	Cost        float64       `json:"cost"`
	Evaluations int64         `json:"evaluations"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Minimizer searches the box [lower, upper] for a minimum of eval.
type Minimizer interface {
	Name() string
	Minimize(eval Objective, lower, upper []float64) (Result, error)
}

// counting wraps eval so every call is counted in n.
func counting(eval Objective, n *atomic.Int64) Objective {
	return func(x []float64) float64 {
		n.Add(1)
		return eval(x)
	}
}

func checkBounds(lower, upper []float64) error {
	if len(lower) == 0 || len(lower) != len(upper) {
		return fmt.Errorf("bounds must be non-empty and of equal length, got %d and %d", len(lower), len(upper))
	}
	for i := range lower {
		if !(lower[i] < upper[i]) {
			return fmt.Errorf("bound %d: lower %g must be below upper %g", i, lower[i], upper[i])
		}
	}
	return nil
}

// Compare runs every minimizer on the same objective. A failing minimizer
// aborts the comparison.
func Compare(minimizers []Minimizer, eval Objective, lower, upper []float64) ([]Result, error) {
	results := make([]Result, 0, len(minimizers))
	for _, m := range minimizers {
		res, err := m.Minimize(eval, lower, upper)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name(), err)
		}
		slog.Info("Minimizer finished",
			"minimizer", m.Name(),
			"cost", res.Cost,
			"evaluations", res.Evaluations,
			"elapsed", res.Elapsed,
		)
		results = append(results, res)
	}
	return results, nil
}
