package seir

import (
	"errors"
	"fmt"
)

// Solver and input errors.
var (
	// ErrInvalidInput indicates a malformed simulation input.
	ErrInvalidInput = errors.New("seir: invalid input")

	// ErrInvalidTimes indicates evaluation times that are empty or not strictly increasing.
	ErrInvalidTimes = errors.New("seir: evaluation times must be non-empty and strictly increasing")

	// ErrStepTooSmall indicates the adaptive step size collapsed.
	ErrStepTooSmall = errors.New("seir: required step size is less than spacing between numbers")

	// ErrTooManySteps indicates the step budget was exhausted before the last evaluation time.
	ErrTooManySteps = errors.New("seir: maximum number of steps exceeded")

	// ErrNonFinite indicates a NaN or Inf in the state or its derivative.
	ErrNonFinite = errors.New("seir: non-finite state")

	// ErrNegativeCompartment indicates a compartment went negative beyond floating tolerance.
	ErrNegativeCompartment = errors.New("seir: negative compartment value")
)

// SolverError carries the diagnostic context of a failed integration.
type SolverError struct {
	Time  float64
	Step  int
	Cause error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("integration failed at t=%g after %d steps: %v", e.Time, e.Step, e.Cause)
}

func (e *SolverError) Unwrap() error {
	return e.Cause
}
