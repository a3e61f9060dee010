package opt

import "math/rand/v2"

// Crossover combines two parents into one child. Parents must not be modified.
type Crossover[P Person[P]] interface {
	Crossover(rng *rand.Rand, a, b P) P
}

// CrossoverFunc adapts a plain function to Crossover.
type CrossoverFunc[P Person[P]] func(rng *rand.Rand, a, b P) P

func (f CrossoverFunc[P]) Crossover(rng *rand.Rand, a, b P) P {
	return f(rng, a, b)
}

// UniformCrossover clones the first parent and takes each gene from the second
// parent with probability Bias (0.5 when unset).
type UniformCrossover[P GenomePerson[P, G], G any] struct {
	Bias float64
}

func (c UniformCrossover[P, G]) Crossover(rng *rand.Rand, a, b P) P {
	bias := c.Bias
	if bias <= 0 {
		bias = 0.5
	}

	child := a.Clone()
	childGenes := child.Genes()
	donorGenes := b.Genes()
	for i := range childGenes {
		if i >= len(donorGenes) {
			break
		}
		if rng.Float64() < bias {
			childGenes[i] = donorGenes[i]
		}
	}
	return child
}
