package opt

import (
	"fmt"
	"math"
)

// Config holds the numeric parameters of an optimization run.
// Setters return modified copies; New validates the final value once.
type Config struct {
	// PopulationSize is the number of candidates seeded at start and on reseed
	PopulationSize int

	// DynastiesLimit bounds the number of dynasties; the loop runs at most DynastiesLimit+1 times
	DynastiesLimit int

	// ResetLimit is the number of reheats tolerated before a forced full reseed
	ResetLimit int

	// MaxStaleIterations is the number of non-improving dynasties before reheating
	MaxStaleIterations int

	// MaxMutationsPerDynasty caps the mutation attempts spent on one individual
	MaxMutationsPerDynasty int

	// EliteSelectionRate is the fraction of the population copied unchanged
	EliteSelectionRate float64

	// CrossoverRate and MutationRate weight the operator choice for the other individuals
	CrossoverRate float64
	MutationRate  float64

	// PopulationPercent is the fraction of PopulationSize retained after each dynasty
	PopulationPercent float64

	// FitnessRecalculation re-scores every evolved individual after acceptance
	FitnessRecalculation bool

	// Seed drives all randomness of a run (0 selects a fixed default)
	Seed uint64

	// Workers bounds the goroutines of a mutation batch (0 = one per sample).
	// It never changes results.
	Workers int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PopulationSize:         100,
		DynastiesLimit:         500,
		ResetLimit:             5,
		MaxStaleIterations:     20,
		MaxMutationsPerDynasty: 64,
		EliteSelectionRate:     0.1,
		CrossoverRate:          0.4,
		MutationRate:           0.6,
		PopulationPercent:      1.0,
		FitnessRecalculation:   false,
		Seed:                   0,
		Workers:                0,
	}
}

func (c Config) WithPopulationSize(n int) Config {
	c.PopulationSize = n
	return c
}

func (c Config) WithDynastiesLimit(n int) Config {
	c.DynastiesLimit = n
	return c
}

func (c Config) WithResetLimit(n int) Config {
	c.ResetLimit = n
	return c
}

func (c Config) WithMaxStaleIterations(n int) Config {
	c.MaxStaleIterations = n
	return c
}

func (c Config) WithMaxMutationsPerDynasty(n int) Config {
	c.MaxMutationsPerDynasty = n
	return c
}

// WithPopulationProportions sets the elite fraction and the crossover/mutation weights.
func (c Config) WithPopulationProportions(elite, crossover, mutation float64) Config {
	c.EliteSelectionRate = elite
	c.CrossoverRate = crossover
	c.MutationRate = mutation
	return c
}

func (c Config) WithPopulationPercent(p float64) Config {
	c.PopulationPercent = p
	return c
}

func (c Config) WithFitnessRecalculation(enabled bool) Config {
	c.FitnessRecalculation = enabled
	return c
}

func (c Config) WithSeed(seed uint64) Config {
	c.Seed = seed
	return c
}

func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}

// retainedSize is the population length kept after each dynasty.
func (c Config) retainedSize() int {
	return int(math.Floor(float64(c.PopulationSize) * c.PopulationPercent))
}

// eliteCount is the number of unchanged copies taken from a population of length n.
func (c Config) eliteCount(n int) int {
	return int(math.Floor(float64(n) * c.EliteSelectionRate))
}

// Validate rejects configurations that would leave the loop without work.
func (c Config) Validate() error {
	if c.PopulationSize <= 0 {
		return &ConfigError{Field: "PopulationSize", Reason: "must be positive"}
	}
	if c.DynastiesLimit < 0 {
		return &ConfigError{Field: "DynastiesLimit", Reason: "cannot be negative"}
	}
	if c.ResetLimit < 0 {
		return &ConfigError{Field: "ResetLimit", Reason: "cannot be negative"}
	}
	if c.MaxStaleIterations < 0 {
		return &ConfigError{Field: "MaxStaleIterations", Reason: "cannot be negative"}
	}
	if c.MaxMutationsPerDynasty <= 0 {
		return &ConfigError{Field: "MaxMutationsPerDynasty", Reason: "must be positive"}
	}
	if c.EliteSelectionRate < 0 || c.EliteSelectionRate >= 1 {
		return &ConfigError{Field: "EliteSelectionRate", Reason: fmt.Sprintf("must be in [0, 1), got %g", c.EliteSelectionRate)}
	}
	if c.CrossoverRate < 0 || c.MutationRate < 0 {
		return &ConfigError{Field: "CrossoverRate/MutationRate", Reason: "cannot be negative"}
	}
	if c.CrossoverRate+c.MutationRate <= 0 {
		return &ConfigError{Field: "CrossoverRate/MutationRate", Reason: "at least one operator weight must be positive"}
	}
	if c.PopulationPercent <= 0 || c.PopulationPercent > 1 {
		return &ConfigError{Field: "PopulationPercent", Reason: fmt.Sprintf("must be in (0, 1], got %g", c.PopulationPercent)}
	}
	retained := c.retainedSize()
	if retained < 1 {
		return &ConfigError{Field: "PopulationPercent", Reason: "retains no individuals"}
	}
	if c.eliteCount(retained) >= retained {
		return &ConfigError{Field: "EliteSelectionRate", Reason: "leaves no individuals to evolve"}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "Workers", Reason: "cannot be negative"}
	}
	return nil
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid config: " + e.Field + " " + e.Reason
}
