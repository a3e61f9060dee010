package problems

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/cwbudde/sagaopt/internal/opt"
	"github.com/cwbudde/sagaopt/internal/store"
)

const defaultBoardSize = 8

// Board places one queen per column; Rows[c] is the row of the queen in
// column c. Rows is always a permutation, so only diagonals can conflict.
type Board struct {
	Rows    []int
	fitness float64
}

func (b *Board) Fitness() float64        { return b.fitness }
func (b *Board) IsOptimal() bool         { return b.fitness == 0 }
func (b *Board) UpdateFitness(f float64) { b.fitness = f }

func (b *Board) Clone() *Board {
	return &Board{Rows: append([]int(nil), b.Rows...), fitness: b.fitness}
}

func (b *Board) String() string {
	parts := make([]string, len(b.Rows))
	for i, r := range b.Rows {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ",")
}

// Conflicts counts pairs of queens sharing a diagonal.
func Conflicts(rows []int) int {
	n := 0
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			d := rows[i] - rows[j]
			if d == j-i || d == i-j {
				n++
			}
		}
	}
	return n
}

// QueensSeeder creates random permutation boards of size N.
type QueensSeeder struct {
	N int
}

func (s QueensSeeder) InitialPopulation(rng *rand.Rand, size int) []*Board {
	population := make([]*Board, size)
	for i := range population {
		population[i] = s.RandomPerson(rng)
	}
	return population
}

func (s QueensSeeder) Evaluate(b *Board) float64 {
	return float64(Conflicts(b.Rows))
}

func (s QueensSeeder) RandomPerson(rng *rand.Rand) *Board {
	b := &Board{Rows: rng.Perm(s.N)}
	b.fitness = s.Evaluate(b)
	return b
}

// SwapMutation exchanges the rows of two random columns.
var SwapMutation = opt.MutationFunc[*Board](func(rng *rand.Rand, b *Board, _ opt.Seeder[*Board]) {
	if len(b.Rows) < 2 {
		return
	}
	i := rng.IntN(len(b.Rows))
	j := rng.IntN(len(b.Rows) - 1)
	if j >= i {
		j++
	}
	b.Rows[i], b.Rows[j] = b.Rows[j], b.Rows[i]
})

// OrderCrossover keeps a random slice of the first parent in place and fills
// the remaining columns with the missing rows in the order of the second parent.
var OrderCrossover = opt.CrossoverFunc[*Board](func(rng *rand.Rand, a, b *Board) *Board {
	n := len(a.Rows)
	child := &Board{Rows: make([]int, n)}
	if n == 0 {
		return child
	}

	lo, hi := rng.IntN(n), rng.IntN(n)
	if lo > hi {
		lo, hi = hi, lo
	}

	used := make([]bool, n)
	for c := lo; c <= hi; c++ {
		child.Rows[c] = a.Rows[c]
		used[a.Rows[c]] = true
	}

	c := (hi + 1) % n
	for k := 0; k < n; k++ {
		r := b.Rows[(hi+1+k)%n]
		if used[r] {
			continue
		}
		child.Rows[c] = r
		used[r] = true
		c = (c + 1) % n
	}
	return child
})

// NewQueensProblem bundles the permutation operators for an n×n board.
func NewQueensProblem(n int) opt.Problem[*Board] {
	return opt.NewProblem[*Board](QueensSeeder{N: n}, OrderCrossover, SwapMutation)
}

func runQueens(cfg store.JobConfig, observer opt.Observer) (Outcome, error) {
	n := dimensionOr(cfg, defaultBoardSize)
	if n == 2 || n == 3 {
		return Outcome{}, fmt.Errorf("queens: board size %d has no solution", n)
	}
	return solve(cfg, NewQueensProblem(n), observer)
}
