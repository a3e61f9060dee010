package store

import (
	"fmt"
	"time"
)

// JobConfig holds the configuration of one optimization run. It lives in the
// store package so checkpoints can carry it without importing the engine.
type JobConfig struct {
	// Problem names a registered problem (scalar, sphere, rastrigin, queens)
	Problem string `json:"problem" toml:"problem"`

	// Dimension is the vector length, the board size, or the scalar bound
	Dimension int `json:"dimension" toml:"dimension"`

	// Tolerance is the fitness at or below which a real-valued candidate counts as optimal
	Tolerance float64 `json:"tolerance,omitempty" toml:"tolerance"`

	// Mutation selects the vector mutation operator (gaussian, reset)
	Mutation string `json:"mutation,omitempty" toml:"mutation"`

	Seed                   uint64  `json:"seed" toml:"seed"`
	PopulationSize         int     `json:"populationSize" toml:"population_size"`
	DynastiesLimit         int     `json:"dynastiesLimit" toml:"dynasties_limit"`
	ResetLimit             int     `json:"resetLimit" toml:"reset_limit"`
	MaxStaleIterations     int     `json:"maxStaleIterations" toml:"max_stale_iterations"`
	MaxMutationsPerDynasty int     `json:"maxMutationsPerDynasty" toml:"max_mutations_per_dynasty"`
	EliteSelectionRate     float64 `json:"eliteSelectionRate" toml:"elite_selection_rate"`
	CrossoverRate          float64 `json:"crossoverRate" toml:"crossover_rate"`
	MutationRate           float64 `json:"mutationRate" toml:"mutation_rate"`
	PopulationPercent      float64 `json:"populationPercent" toml:"population_percent"`
	FitnessRecalculation   bool    `json:"fitnessRecalculation,omitempty" toml:"fitness_recalculation"`
	Workers                int     `json:"workers,omitempty" toml:"workers"`

	// CheckpointInterval saves a progress checkpoint every N dynasties (0 = final checkpoint only)
	CheckpointInterval int `json:"checkpointInterval,omitempty" toml:"checkpoint_interval"`
}

// Checkpoint is the persisted state of a run: its configuration and the best
// candidate found so far. The engine population is not saved; a rerun with the
// same config and seed reproduces it.
type Checkpoint struct {
	// JobID is the unique identifier for this run
	JobID string `json:"jobId"`

	// Reason is the stop reason of a finished run; empty while in progress
	Reason string `json:"reason,omitempty"`

	// Best is the rendering of the best candidate
	Best string `json:"best"`

	// BestFitness is the cost of Best
	BestFitness float64 `json:"bestFitness"`

	// InitialFitness is the head fitness of the first reported dynasty
	InitialFitness float64 `json:"initialFitness"`

	// Dynasty is the number of dynasties completed when this checkpoint was created
	Dynasty int `json:"dynasty"`

	Timestamp time.Time `json:"timestamp"`

	Config JobConfig `json:"config"`
}

// CheckpointInfo contains checkpoint metadata for listings.
type CheckpointInfo struct {
	JobID       string    `json:"jobId"`
	Problem     string    `json:"problem"`
	Dimension   int       `json:"dimension"`
	Reason      string    `json:"reason,omitempty"`
	BestFitness float64   `json:"bestFitness"`
	Dynasty     int       `json:"dynasty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewCheckpoint creates a checkpoint stamped with the current time.
func NewCheckpoint(jobID, best string, bestFitness, initialFitness float64, dynasty int, config JobConfig) *Checkpoint {
	return &Checkpoint{
		JobID:          jobID,
		Best:           best,
		BestFitness:    bestFitness,
		InitialFitness: initialFitness,
		Dynasty:        dynasty,
		Timestamp:      time.Now(),
		Config:         config,
	}
}

// Finished reports whether the run behind this checkpoint has terminated.
func (c *Checkpoint) Finished() bool {
	return c.Reason != ""
}

// ToInfo converts a full Checkpoint to CheckpointInfo.
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:       c.JobID,
		Problem:     c.Config.Problem,
		Dimension:   c.Config.Dimension,
		Reason:      c.Reason,
		BestFitness: c.BestFitness,
		Dynasty:     c.Dynasty,
		Timestamp:   c.Timestamp,
	}
}

// Validate checks if the checkpoint has valid data.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if c.Best == "" {
		return &ValidationError{Field: "Best", Reason: "cannot be empty"}
	}
	if c.Dynasty < 0 {
		return &ValidationError{Field: "Dynasty", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.Problem == "" {
		return &ValidationError{Field: "Config.Problem", Reason: "cannot be empty"}
	}
	if c.Config.PopulationSize <= 0 {
		return &ValidationError{Field: "Config.PopulationSize", Reason: "must be positive"}
	}
	if c.Config.DynastiesLimit < 0 {
		return &ValidationError{Field: "Config.DynastiesLimit", Reason: "cannot be negative"}
	}
	if c.Dynasty > c.Config.DynastiesLimit+1 {
		return &ValidationError{
			Field:  "Dynasty",
			Reason: fmt.Sprintf("exceeds dynasty budget %d", c.Config.DynastiesLimit),
		}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks whether config describes the same search as the checkpoint.
func (c *Checkpoint) IsCompatible(config JobConfig) error {
	if c.Config.Problem != config.Problem {
		return &CompatibilityError{
			Field:    "Problem",
			Expected: c.Config.Problem,
			Actual:   config.Problem,
		}
	}
	if c.Config.Dimension != config.Dimension {
		return &CompatibilityError{
			Field:    "Dimension",
			Expected: fmt.Sprintf("%d", c.Config.Dimension),
			Actual:   fmt.Sprintf("%d", config.Dimension),
		}
	}
	if c.Config.Seed != config.Seed {
		return &CompatibilityError{
			Field:    "Seed",
			Expected: fmt.Sprintf("%d", c.Config.Seed),
			Actual:   fmt.Sprintf("%d", config.Seed),
		}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
