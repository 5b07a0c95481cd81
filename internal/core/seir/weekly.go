package seir

import "fmt"

// WeeklyInput describes one run of the discrete weekly recurrence.
// Rates are per step (per week), and β at step t is Beta0·Forcing[t].
type WeeklyInput struct {
	Initial    State
	Population float64
	Rates      Rates
	Beta0      float64
	Forcing    []float64
}

// WeeklyResult is the output of StepWeekly.
type WeeklyResult struct {
	// Trajectory has one snapshot per forcing entry; Time holds the step index.
	Trajectory *Trajectory

	// Clamps counts how many times a negative update was forced to zero.
	// Each clamp discards a negative flux, so S+E+I+R drifts away from N.
	Clamps int

	// ClampsByCompartment breaks Clamps down in compartment order.
	ClampsByCompartment [NumCompartments]int
}

// StepWeekly runs the explicit weekly recurrence. Every update uses values
// from step t only:
//
//	newE = β(t)·S·I/N, newI = σE, newR = γI
//	S' = max(S − newE, 0)   E' = max(E + newE − newI, 0)
//	I' = max(I + newI − newR, 0)   R' = max(R + newR, 0)
//
// Clamping trades exact mass conservation for robustness at coarse steps
// and is not equivalent to Integrate.
func StepWeekly(in WeeklyInput) (*WeeklyResult, error) {
	if len(in.Forcing) == 0 {
		return nil, fmt.Errorf("%w: forcing sequence is empty", ErrInvalidInput)
	}
	if in.Population <= 0 {
		return nil, fmt.Errorf("%w: population must be positive, got %g", ErrInvalidInput, in.Population)
	}
	if !in.Initial.finite() {
		return nil, fmt.Errorf("%w: initial state", ErrNonFinite)
	}

	res := &WeeklyResult{Trajectory: newTrajectory(len(in.Forcing))}
	clamp := func(idx int, v float64) float64 {
		if v < 0 {
			res.Clamps++
			res.ClampsByCompartment[idx]++
			return 0
		}
		return v
	}

	cur := in.Initial
	res.Trajectory.append(0, cur)

	for t := 0; t < len(in.Forcing)-1; t++ {
		beta := in.Beta0 * in.Forcing[t]
		newE := beta * cur.S * cur.I / in.Population
		newI := in.Rates.Sigma * cur.E
		newR := in.Rates.Gamma * cur.I

		next := State{
			S: clamp(IdxS, cur.S-newE),
			E: clamp(IdxE, cur.E+newE-newI),
			I: clamp(IdxI, cur.I+newI-newR),
			R: clamp(IdxR, cur.R+newR),
		}
		if !next.finite() {
			return nil, fmt.Errorf("%w: step %d", ErrNonFinite, t+1)
		}

		cur = next
		res.Trajectory.append(float64(t+1), cur)
	}

	return res, nil
}

// MassDrift returns the final total minus N. It is zero up to rounding
// when no clamp fired.
func (r *WeeklyResult) MassDrift(population float64) float64 {
	last := r.Trajectory.At(r.Trajectory.Len() - 1)
	return last.Total() - population
}
