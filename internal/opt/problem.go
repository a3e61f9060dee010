package opt

// Problem bundles the operators and the domain seeder of a run.
// Setters return modified copies.
type Problem[P Person[P]] struct {
	Schedule  TempSchedule
	Selection Selection[P]
	Crossover Crossover[P]
	Mutation  Mutation[P]
	Seeder    Seeder[P]
}

// NewProblem creates a problem with the reference schedule and tournament selection.
func NewProblem[P Person[P]](seeder Seeder[P], crossover Crossover[P], mutation Mutation[P]) Problem[P] {
	return Problem[P]{
		Schedule:  DefaultSchedule(),
		Selection: DefaultTournament[P](),
		Crossover: crossover,
		Mutation:  mutation,
		Seeder:    seeder,
	}
}

func (p Problem[P]) WithSchedule(s TempSchedule) Problem[P] {
	p.Schedule = s
	return p
}

func (p Problem[P]) WithSelection(s Selection[P]) Problem[P] {
	p.Selection = s
	return p
}

func (p Problem[P]) WithCrossover(c Crossover[P]) Problem[P] {
	p.Crossover = c
	return p
}

func (p Problem[P]) WithMutation(m Mutation[P]) Problem[P] {
	p.Mutation = m
	return p
}

func (p Problem[P]) WithSeeder(s Seeder[P]) Problem[P] {
	p.Seeder = s
	return p
}

type validator interface {
	Validate() error
}

// Validate checks that every operator is present and self-consistent.
func (p Problem[P]) Validate() error {
	switch {
	case p.Schedule == nil:
		return &ConfigError{Field: "Problem.Schedule", Reason: "is required"}
	case p.Selection == nil:
		return &ConfigError{Field: "Problem.Selection", Reason: "is required"}
	case p.Crossover == nil:
		return &ConfigError{Field: "Problem.Crossover", Reason: "is required"}
	case p.Mutation == nil:
		return &ConfigError{Field: "Problem.Mutation", Reason: "is required"}
	case p.Seeder == nil:
		return &ConfigError{Field: "Problem.Seeder", Reason: "is required"}
	}

	for _, op := range []any{p.Schedule, p.Selection, p.Crossover, p.Mutation} {
		if v, ok := op.(validator); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
