package seir

import (
	"context"
	"fmt"
)

// NegativeTolerance is how far below zero an integrated compartment may
// drift from rounding before it is reported as a defect. Values inside the
// tolerance are reported as exactly zero.
const NegativeTolerance = 1e-6

// Input describes one continuous-time integration.
type Input struct {
	Initial    State
	Population float64
	Rates      Rates
	Forcing    RateFunc
	Times      []float64 // strictly increasing evaluation times (days)
	Options    SolverOptions
}

func (in Input) validate() error {
	if in.Population <= 0 {
		return fmt.Errorf("%w: population must be positive, got %g", ErrInvalidInput, in.Population)
	}
	if in.Rates.Sigma <= 0 || in.Rates.Gamma <= 0 {
		return fmt.Errorf("%w: sigma and gamma must be positive, got %g and %g", ErrInvalidInput, in.Rates.Sigma, in.Rates.Gamma)
	}
	if in.Forcing == nil {
		return fmt.Errorf("%w: forcing is required", ErrInvalidInput)
	}
	if !in.Initial.finite() {
		return fmt.Errorf("%w: initial state", ErrNonFinite)
	}
	if !in.Initial.nonNegative() {
		return fmt.Errorf("%w: initial state %+v", ErrNegativeCompartment, in.Initial)
	}
	return validateTimes(in.Times)
}

func validateTimes(times []float64) error {
	if len(times) == 0 {
		return ErrInvalidTimes
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return fmt.Errorf("%w: times[%d]=%g follows %g", ErrInvalidTimes, i, times[i], times[i-1])
		}
	}
	return nil
}

// Integrate advances the SEIR system with the adaptive Dormand–Prince
// solver and samples the solution at exactly in.Times. A failure is
// returned as a *SolverError and is never retried with looser tolerances.
func Integrate(ctx context.Context, in Input) (*Trajectory, SolverStats, error) {
	if err := in.validate(); err != nil {
		return nil, SolverStats{}, err
	}

	rhs := func(t float64, y, dy []float64) {
		Derivatives(t, y, in.Population, in.Rates, in.Forcing, dy)
	}

	traj := newTrajectory(len(in.Times))
	record := func(_ int, t float64, y []float64) error {
		s, err := snapNonNegative(StateFromVector(y))
		if err != nil {
			return err
		}
		traj.append(t, s)
		return nil
	}

	stats, err := solveDOPRI(ctx, rhs, in.Initial.Vector(), in.Times, in.Options, record)
	if err != nil {
		return nil, stats, err
	}
	return traj, stats, nil
}

func snapNonNegative(s State) (State, error) {
	vals := [NumCompartments]*float64{&s.S, &s.E, &s.I, &s.R}
	for i, v := range vals {
		if *v >= 0 {
			continue
		}
		if *v < -NegativeTolerance {
			return s, fmt.Errorf("%w: %s=%g", ErrNegativeCompartment, Compartments[i], *v)
		}
		*v = 0
	}
	return s, nil
}
