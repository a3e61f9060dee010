package opt

import "fmt"

// Reason explains why Optimize returned.
type Reason int

const (
	// GoodEnough means a candidate satisfying IsOptimal was found
	GoodEnough Reason = iota

	// ResetLimit is reserved for reset-budget exhaustion. The loop currently
	// treats that budget as a reseed trigger and never returns it.
	ResetLimit

	// DynastiesLimit means the dynasty budget ran out
	DynastiesLimit
)

var reasonNames = map[Reason]string{
	GoodEnough:     "good_enough",
	ResetLimit:     "reset_limit",
	DynastiesLimit: "dynasties_limit",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

func (r Reason) MarshalText() ([]byte, error) {
	name, ok := reasonNames[r]
	if !ok {
		return nil, fmt.Errorf("unknown reason: %d", int(r))
	}
	return []byte(name), nil
}

func (r *Reason) UnmarshalText(text []byte) error {
	for reason, name := range reasonNames {
		if name == string(text) {
			*r = reason
			return nil
		}
	}
	return fmt.Errorf("unknown reason: %q", text)
}
