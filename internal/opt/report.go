package opt

import "gonum.org/v1/gonum/stat"

// DynastyReport summarizes the population after one dynasty.
type DynastyReport struct {
	Dynasty       int         `json:"dynasty"`
	Population    int         `json:"population"`
	BestFitness   float64     `json:"bestFitness"`
	MeanFitness   float64     `json:"meanFitness"`
	StdDevFitness float64     `json:"stdDevFitness"`
	Temperature   Temperature `json:"temperature"`
	Stale         int         `json:"stale"`
	Resets        int         `json:"resets"`
	Reseeds       int         `json:"reseeds"`
	Best          string      `json:"best,omitempty"`
}

// Observer receives a report after every dynasty. It runs on the
// orchestrating goroutine and must not block for long.
type Observer func(report DynastyReport)

// fitnessStats returns mean and standard deviation of the population fitness.
func fitnessStats[P Person[P]](population []P) (mean, stddev float64) {
	if len(population) == 0 {
		return 0, 0
	}
	values := make([]float64, len(population))
	for i, p := range population {
		values[i] = p.Fitness()
	}
	if len(values) == 1 {
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}
