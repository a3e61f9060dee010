package opt

import "math/rand/v2"

// Mutation perturbs p in place, using the seeder for domain knowledge.
// It is called concurrently on independent clones with independent streams.
type Mutation[P Person[P]] interface {
	Mutate(rng *rand.Rand, p P, seeder Seeder[P])
}

// MutationFunc adapts a plain function to Mutation.
type MutationFunc[P Person[P]] func(rng *rand.Rand, p P, seeder Seeder[P])

func (f MutationFunc[P]) Mutate(rng *rand.Rand, p P, seeder Seeder[P]) {
	f(rng, p, seeder)
}

// RandomResetMutation overwrites Genes randomly chosen positions (1 when unset)
// with the genes of a fresh random candidate drawn from the seeder.
type RandomResetMutation[P GenomePerson[P, G], G any] struct {
	Genes int
}

func (m RandomResetMutation[P, G]) Mutate(rng *rand.Rand, p P, seeder Seeder[P]) {
	target := p.Genes()
	if len(target) == 0 {
		return
	}
	donor := seeder.RandomPerson(rng).Genes()

	n := m.Genes
	if n < 1 {
		n = 1
	}
	for k := 0; k < n; k++ {
		i := rng.IntN(len(target))
		if i < len(donor) {
			target[i] = donor[i]
		}
	}
}
