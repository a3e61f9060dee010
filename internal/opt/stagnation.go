package opt

import "log/slog"

// stagnationTracker remembers the best candidate seen across dynasties and counts
// consecutive dynasties without strict improvement.
type stagnationTracker[P Person[P]] struct {
	best       P
	staleCount int
}

// newStagnationTracker starts tracking from the head of the seeded population.
func newStagnationTracker[P Person[P]](head P) *stagnationTracker[P] {
	return &stagnationTracker[P]{best: head.Clone()}
}

// Update records the current population head and returns true if it improved
// on the best so far.
func (s *stagnationTracker[P]) Update(head P) bool {
	if head.Fitness() < s.best.Fitness() {
		s.best = head.Clone()
		s.staleCount = 0
		slog.Debug("Best fitness improved", "best_fitness", head.Fitness())
		return true
	}

	s.staleCount++
	return false
}

// Stale reports whether the stale count exceeds the patience.
func (s *stagnationTracker[P]) Stale(patience int) bool {
	return s.staleCount > patience
}

// Best returns the best candidate seen so far.
func (s *stagnationTracker[P]) Best() P {
	return s.best
}

// StaleCount returns the number of dynasties since the last improvement.
func (s *stagnationTracker[P]) StaleCount() int {
	return s.staleCount
}

