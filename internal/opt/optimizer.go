// Package opt implements a hybrid simulated annealing and genetic algorithm
// optimizer. A population is evolved dynasty by dynasty with crossover and
// mutation; every offspring has to pass a Metropolis acceptance test against
// the individual it replaces, and the temperature of that test cools between
// dynasties and is reheated when the search stagnates.
package opt

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/stat"
)

const (
	// temperatureSamples is the number of mutated clones used to calibrate the start temperature
	temperatureSamples = 16

	// initialBatchSize and maxBatchSize bound the parallel mutation batches
	initialBatchSize = 4
	maxBatchSize     = 64

	// acceptanceBias is added to every cost delta so ties lean toward exploration
	acceptanceBias = 0.5
)

// operator is the evolution step chosen for one individual.
type operator int

const (
	opMutation operator = iota
	opCrossover
)

// Optimizer runs the hybrid search. It is immutable after New and safe to
// reuse; every Optimize call starts from Config.Seed.
type Optimizer[P Person[P]] struct {
	config   Config
	problem  Problem[P]
	observer Observer
}

// New validates config and problem and returns an optimizer.
func New[P Person[P]](config Config, problem Problem[P]) (*Optimizer[P], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	return &Optimizer[P]{
		config:  config,
		problem: problem,
	}, nil
}

// Config returns the run configuration.
func (o *Optimizer[P]) Config() Config {
	return o.config
}

// Problem returns the operator bundle.
func (o *Optimizer[P]) Problem() Problem[P] {
	return o.problem
}

// WithObserver returns a copy of the optimizer that reports every dynasty to fn.
func (o *Optimizer[P]) WithObserver(fn Observer) *Optimizer[P] {
	c := *o
	c.observer = fn
	return &c
}

// InitialTemperature calibrates a start temperature from a fresh random stream.
func (o *Optimizer[P]) InitialTemperature() Temperature {
	return o.newRun().initialTemperature()
}

// Result describes a finished run.
type Result[P Person[P]] struct {
	Reason Reason
	Best   P

	// InitialTemperature is the temperature calibrated for the first population.
	InitialTemperature Temperature
	Dynasties          int
	Reseeds            int
}

// Optimize runs dynasties until a candidate is optimal or the dynasty budget
// is spent. It returns the stop reason and the best candidate observed.
func (o *Optimizer[P]) Optimize() (Reason, P) {
	res := o.Run()
	return res.Reason, res.Best
}

// Run is Optimize with the run statistics attached.
func (o *Optimizer[P]) Run() Result[P] {
	r := o.newRun()
	r.seed()
	r.tracker = newStagnationTracker(r.population[0])
	r.best = r.population[0].Clone()
	initial := r.temperature
	finish := func(reason Reason, best P) Result[P] {
		return Result[P]{
			Reason:             reason,
			Best:               best,
			InitialTemperature: initial,
			Dynasties:          r.dynasties,
			Reseeds:            r.reseeds,
		}
	}

	slog.Info("Starting optimization",
		"population", len(r.population),
		"dynasties_limit", o.config.DynastiesLimit,
		"temperature", r.temperature,
		"best_fitness", r.population[0].Fitness(),
	)

	for {
		if r.dynasties > o.config.DynastiesLimit {
			best := r.best
			if tracked := r.tracker.Best(); tracked.Fitness() < best.Fitness() {
				best = tracked
			}
			slog.Info("Dynasties limit reached", "dynasties", r.dynasties, "best_fitness", best.Fitness(), "reseeds", r.reseeds)
			return finish(DynastiesLimit, best)
		}

		if winner, ok := firstOptimal(r.population); ok {
			slog.Info("Optimal candidate found", "dynasties", r.dynasties, "best_fitness", winner.Fitness())
			return finish(GoodEnough, winner)
		}

		if r.resets > o.config.ResetLimit {
			r.reseed("reset limit exceeded")
		}

		if r.tracker.Stale(o.config.MaxStaleIterations) {
			if r.temperature > r.baseline {
				r.reseed("stale above baseline temperature")
			} else {
				r.temperature = clampTemperature(o.problem.Schedule.ResetTemperature(r.temperature).Float64())
				r.resets++
				slog.Info("Reheating", "temperature", r.temperature, "resets", r.resets, "stale", r.tracker.StaleCount())
			}
		}

		r.tracker.Update(r.population[0])

		next, winner, found := r.nextGeneration()
		if found {
			slog.Info("Optimal candidate found", "dynasties", r.dynasties, "best_fitness", winner.Fitness())
			return finish(GoodEnough, winner)
		}

		sortByFitness(next)
		r.temperature = clampTemperature(o.problem.Schedule.NextTemperature(r.temperature).Float64())
		if retained := o.config.retainedSize(); len(next) > retained {
			next = next[:retained]
		}
		r.population = next
		if next[0].Fitness() < r.best.Fitness() {
			r.best = next[0].Clone()
		}
		r.dynasties++
		r.report()
	}
}

// run is the mutable state of one Optimize call.
type run[P Person[P]] struct {
	*Optimizer[P]

	streams     *Streams
	population  []P
	temperature Temperature
	baseline    Temperature
	tracker     *stagnationTracker[P]
	best        P // survives reseeds
	dynasties   int
	resets      int
	reseeds     int
}

func (o *Optimizer[P]) newRun() *run[P] {
	return &run[P]{
		Optimizer: o,
		streams:   NewStreams(o.config.Seed),
	}
}

// seed builds a fresh sorted population and recalibrates the temperature.
func (r *run[P]) seed() {
	r.streams.Do(func(rng *rand.Rand) {
		r.population = r.problem.Seeder.InitialPopulation(rng, r.config.PopulationSize)
	})
	sortByFitness(r.population)
	r.baseline = r.initialTemperature()
	r.temperature = r.baseline
	r.resets = 0
}

func (r *run[P]) reseed(cause string) {
	r.seed()
	r.reseeds++
	slog.Info("Reseeding population",
		"cause", cause,
		"dynasties", r.dynasties,
		"reseeds", r.reseeds,
		"temperature", r.temperature,
	)
}

// nextGeneration copies the elite and evolves everyone else. It stops early
// when an evolved individual is optimal.
func (r *run[P]) nextGeneration() ([]P, P, bool) {
	n := len(r.population)
	elite := r.config.eliteCount(n)

	next := make([]P, 0, n)
	for _, p := range r.population[:elite] {
		next = append(next, p.Clone())
	}

	for _, person := range r.population[elite:] {
		child := r.evolve(person)
		if r.config.FitnessRecalculation {
			child.UpdateFitness(r.problem.Seeder.Evaluate(child))
		}
		if child.IsOptimal() {
			return nil, child, true
		}
		next = append(next, child)
	}

	var zero P
	return next, zero, false
}

// evolve produces the successor of person by crossover or by a mutation batch.
func (r *run[P]) evolve(person P) P {
	var (
		op   operator
		a, b P
	)
	r.streams.Do(func(rng *rand.Rand) {
		op = r.chooseOperator(rng)
		if op == opCrossover {
			a = r.problem.Selection.Select(rng, r.population)
			b = r.problem.Selection.Select(rng, r.population)
		}
	})

	switch op {
	case opCrossover:
		return r.crossover(person, a, b)
	default:
		return r.mutate(person)
	}
}

// chooseOperator draws the operator with weights CrossoverRate and MutationRate.
func (r *run[P]) chooseOperator(rng *rand.Rand) operator {
	total := r.config.CrossoverRate + r.config.MutationRate
	if rng.Float64()*total < r.config.CrossoverRate {
		return opCrossover
	}
	return opMutation
}

func (r *run[P]) crossover(person, a, b P) P {
	rng := r.streams.Fork(1)[0]

	child := r.problem.Crossover.Crossover(rng, a, b)
	child.UpdateFitness(r.problem.Seeder.Evaluate(child))
	if accept(rng, child.Fitness(), person.Fitness(), r.temperature) {
		return child
	}
	return person.Clone()
}

// mutate runs growing batches of parallel mutation samples until one is vital
// or MaxMutationsPerDynasty attempts are spent.
func (r *run[P]) mutate(person P) P {
	limit := r.config.MaxMutationsPerDynasty
	batch := initialBatchSize

	for attempts := 0; attempts < limit; {
		n := min(batch, limit-attempts)
		vital := r.mutationBatch(person, n)
		attempts += n

		if len(vital) > 0 {
			var pick int
			r.streams.Do(func(rng *rand.Rand) {
				pick = rng.IntN(len(vital))
			})
			return vital[pick]
		}
		batch = min(batch*2, maxBatchSize)
	}

	return person.Clone()
}

// mutationBatch mutates n clones of person in parallel and returns the vital
// ones in sample order.
func (r *run[P]) mutationBatch(person P, n int) []P {
	streams := r.streams.Fork(n)
	samples := make([]P, n)
	vital := make([]bool, n)

	p := r.newPool()
	for i := 0; i < n; i++ {
		p.Go(func() {
			candidate := person.Clone()
			r.problem.Mutation.Mutate(streams[i], candidate, r.problem.Seeder)
			candidate.UpdateFitness(r.problem.Seeder.Evaluate(candidate))
			samples[i] = candidate
			vital[i] = accept(streams[i], candidate.Fitness(), person.Fitness(), r.temperature)
		})
	}
	p.Wait()

	result := make([]P, 0, n)
	for i, ok := range vital {
		if ok {
			result = append(result, samples[i])
		}
	}
	return result
}

// initialTemperature returns the standard deviation of the cost of
// temperatureSamples mutations of one random candidate.
func (r *run[P]) initialTemperature() Temperature {
	var base P
	r.streams.Do(func(rng *rand.Rand) {
		base = r.problem.Seeder.RandomPerson(rng)
	})

	streams := r.streams.Fork(temperatureSamples)
	costs := make([]float64, temperatureSamples)

	p := r.newPool()
	for i := range costs {
		p.Go(func() {
			candidate := base.Clone()
			r.problem.Mutation.Mutate(streams[i], candidate, r.problem.Seeder)
			costs[i] = r.problem.Seeder.Evaluate(candidate)
		})
	}
	p.Wait()

	// Identical samples have no spread; skip the floating point noise of the mean.
	if slices.Min(costs) == slices.Max(costs) {
		return 0
	}
	return clampTemperature(stat.StdDev(costs, nil))
}

func (r *run[P]) newPool() *pool.Pool {
	p := pool.New()
	if r.config.Workers > 0 {
		p = p.WithMaxGoroutines(r.config.Workers)
	}
	return p
}

func (r *run[P]) report() {
	head := r.population[0]
	mean, stddev := fitnessStats(r.population)

	slog.Debug("Dynasty complete",
		"dynasty", r.dynasties,
		"best_fitness", head.Fitness(),
		"mean_fitness", mean,
		"temperature", r.temperature,
		"stale", r.tracker.StaleCount(),
	)

	if r.observer == nil {
		return
	}
	report := DynastyReport{
		Dynasty:       r.dynasties,
		Population:    len(r.population),
		BestFitness:   head.Fitness(),
		MeanFitness:   mean,
		StdDevFitness: stddev,
		Temperature:   r.temperature,
		Stale:         r.tracker.StaleCount(),
		Resets:        r.resets,
		Reseeds:       r.reseeds,
	}
	if s, ok := any(head).(fmt.Stringer); ok {
		report.Best = s.String()
	}
	r.observer(report)
}

// accept is the Metropolis test: a candidate is vital when a uniform draw falls
// below exp(-(bias + candidate - incumbent) / t).
func accept(rng *rand.Rand, candidate, incumbent float64, t Temperature) bool {
	costDifference := acceptanceBias + candidate - incumbent
	threshold := math.Exp(-costDifference / t.Float64())
	return rng.Float64() < threshold
}

func firstOptimal[P Person[P]](population []P) (P, bool) {
	for _, p := range population {
		if p.IsOptimal() {
			return p, true
		}
	}
	var zero P
	return zero, false
}

func sortByFitness[P Person[P]](population []P) {
	slices.SortStableFunc(population, func(a, b P) int {
		return cmp.Compare(a.Fitness(), b.Fitness())
	})
}
