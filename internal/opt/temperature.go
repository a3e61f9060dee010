package opt

import (
	"fmt"
	"strconv"
)

// Temperature is the annealing scale used by the acceptance test. It is never negative.
type Temperature float64

// Float64 unwraps the raw value.
func (t Temperature) Float64() float64 {
	return float64(t)
}

func (t Temperature) String() string {
	return strconv.FormatFloat(float64(t), 'g', 6, 64)
}

// clampTemperature keeps schedule output non-negative.
func clampTemperature(v float64) Temperature {
	if v < 0 || v != v {
		return 0
	}
	return Temperature(v)
}

// TempSchedule controls cooling between dynasties and reheating after stagnation.
// Implementations must be pure functions of their input and their own fixed parameters.
// The optimizer clamps negative results to zero.
type TempSchedule interface {
	// NextTemperature cools t by one dynasty step
	NextTemperature(t Temperature) Temperature

	// ResetTemperature reheats t; the result must be strictly greater than t
	ResetTemperature(t Temperature) Temperature
}

// LinearSchedule cools with t*Coefficient + Constant and reheats by adding ResetIncrease.
type LinearSchedule struct {
	Coefficient   float64
	Constant      float64
	ResetIncrease float64
}

// DefaultSchedule returns the reference schedule.
func DefaultSchedule() LinearSchedule {
	return LinearSchedule{
		Coefficient:   0.95,
		Constant:      0,
		ResetIncrease: 1.0,
	}
}

func (s LinearSchedule) NextTemperature(t Temperature) Temperature {
	return clampTemperature(t.Float64()*s.Coefficient + s.Constant)
}

func (s LinearSchedule) ResetTemperature(t Temperature) Temperature {
	return clampTemperature(t.Float64() + s.ResetIncrease)
}

// Validate checks that the schedule cools and strictly reheats.
func (s LinearSchedule) Validate() error {
	if s.Coefficient <= 0 || s.Coefficient > 1 {
		return &ConfigError{Field: "LinearSchedule.Coefficient", Reason: fmt.Sprintf("must be in (0, 1], got %g", s.Coefficient)}
	}
	if s.Constant < 0 {
		return &ConfigError{Field: "LinearSchedule.Constant", Reason: "cannot be negative"}
	}
	if s.ResetIncrease <= 0 {
		return &ConfigError{Field: "LinearSchedule.ResetIncrease", Reason: "must be positive"}
	}
	return nil
}

// GeometricSchedule cools with t*Coefficient and reheats with t*ResetFactor.
// A zero temperature is reheated to Floor.
type GeometricSchedule struct {
	Coefficient float64
	ResetFactor float64
	Floor       float64
}

func (s GeometricSchedule) NextTemperature(t Temperature) Temperature {
	return clampTemperature(t.Float64() * s.Coefficient)
}

func (s GeometricSchedule) ResetTemperature(t Temperature) Temperature {
	next := t.Float64() * s.ResetFactor
	if next <= t.Float64() {
		next = t.Float64() + s.Floor
	}
	return clampTemperature(next)
}

// Validate checks that the schedule cools and strictly reheats.
func (s GeometricSchedule) Validate() error {
	if s.Coefficient <= 0 || s.Coefficient > 1 {
		return &ConfigError{Field: "GeometricSchedule.Coefficient", Reason: fmt.Sprintf("must be in (0, 1], got %g", s.Coefficient)}
	}
	if s.ResetFactor <= 1 {
		return &ConfigError{Field: "GeometricSchedule.ResetFactor", Reason: "must be greater than 1"}
	}
	if s.Floor <= 0 {
		return &ConfigError{Field: "GeometricSchedule.Floor", Reason: "must be positive"}
	}
	return nil
}
