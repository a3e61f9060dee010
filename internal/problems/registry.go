// Package problems provides concrete search problems for the opt engine and a
// registry that runs them from a store.JobConfig.
package problems

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cwbudde/sagaopt/internal/opt"
	"github.com/cwbudde/sagaopt/internal/store"
)

// Outcome is the problem-independent result of one run.
type Outcome struct {
	Problem            string        `json:"problem"`
	Reason             opt.Reason    `json:"reason"`
	Best               string        `json:"best"`
	Fitness            float64       `json:"fitness"`
	InitialTemperature float64       `json:"initialTemperature"`
	Elapsed            time.Duration `json:"elapsed"`
}

// Runner builds an optimizer for cfg, runs it to completion and reports every
// dynasty to observer (which may be nil).
type Runner func(cfg store.JobConfig, observer opt.Observer) (Outcome, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Runner)
)

// Register adds a runner under name. It panics on duplicate names.
func Register(name string, runner Runner) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[name]; exists {
		panic("problems: duplicate registration of " + name)
	}
	registry[name] = runner
}

// Get returns the runner registered under name.
func Get(name string) (Runner, error) {
	mu.RLock()
	defer mu.RUnlock()

	runner, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem %q (available: %v)", name, namesLocked())
	}
	return runner, nil
}

// Names returns the registered problem names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Run looks up cfg.Problem and runs it.
func Run(cfg store.JobConfig, observer opt.Observer) (Outcome, error) {
	runner, err := Get(cfg.Problem)
	if err != nil {
		return Outcome{}, err
	}
	return runner(cfg, observer)
}

func init() {
	Register("scalar", runScalar)
	Register("sphere", vectorRunner("sphere"))
	Register("rastrigin", vectorRunner("rastrigin"))
	Register("queens", runQueens)
}

// DefaultJobConfig returns a job config for problem with the engine defaults.
func DefaultJobConfig(problem string) store.JobConfig {
	c := opt.DefaultConfig()
	return store.JobConfig{
		Problem:                problem,
		Seed:                   c.Seed,
		PopulationSize:         c.PopulationSize,
		DynastiesLimit:         c.DynastiesLimit,
		ResetLimit:             c.ResetLimit,
		MaxStaleIterations:     c.MaxStaleIterations,
		MaxMutationsPerDynasty: c.MaxMutationsPerDynasty,
		EliteSelectionRate:     c.EliteSelectionRate,
		CrossoverRate:          c.CrossoverRate,
		MutationRate:           c.MutationRate,
		PopulationPercent:      c.PopulationPercent,
		FitnessRecalculation:   c.FitnessRecalculation,
		Workers:                c.Workers,
	}
}

// EngineConfig maps the engine fields of a job config onto opt.Config.
func EngineConfig(cfg store.JobConfig) opt.Config {
	return opt.DefaultConfig().
		WithSeed(cfg.Seed).
		WithPopulationSize(cfg.PopulationSize).
		WithDynastiesLimit(cfg.DynastiesLimit).
		WithResetLimit(cfg.ResetLimit).
		WithMaxStaleIterations(cfg.MaxStaleIterations).
		WithMaxMutationsPerDynasty(cfg.MaxMutationsPerDynasty).
		WithPopulationProportions(cfg.EliteSelectionRate, cfg.CrossoverRate, cfg.MutationRate).
		WithPopulationPercent(cfg.PopulationPercent).
		WithFitnessRecalculation(cfg.FitnessRecalculation).
		WithWorkers(cfg.Workers)
}

// solve runs problem with the engine settings of cfg.
func solve[P opt.Person[P]](cfg store.JobConfig, problem opt.Problem[P], observer opt.Observer) (Outcome, error) {
	o, err := opt.New(EngineConfig(cfg), problem)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", cfg.Problem, err)
	}
	if observer != nil {
		o = o.WithObserver(observer)
	}

	start := time.Now()
	res := o.Run()

	return Outcome{
		Problem:            cfg.Problem,
		Reason:             res.Reason,
		Best:               fmt.Sprint(res.Best),
		Fitness:            res.Best.Fitness(),
		InitialTemperature: res.InitialTemperature.Float64(),
		Elapsed:            time.Since(start),
	}, nil
}

// dimensionOr returns cfg.Dimension, or def when it is unset.
func dimensionOr(cfg store.JobConfig, def int) int {
	if cfg.Dimension > 0 {
		return cfg.Dimension
	}
	return def
}
