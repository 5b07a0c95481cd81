// Package forcing contains the time-varying transmission rate model.
// Everything here is a pure function of its inputs.
package forcing

import "math"

// DaysPerYear is the period of both the seasonal and the climate signal.
const DaysPerYear = 365.0

// Params holds the shared forcing parameters for a run.
type Params struct {
	Beta0              float64 // baseline transmission rate, > 0
	SeasonalAmplitude  float64 // expected in [0, 1)
	SeasonalPhase      float64 // days
	ClimateCoefficient float64 // may be negative
}

// Overrides holds the per-scenario perturbation of the forcing.
type Overrides struct {
	ClimateShock       float64
	InterventionStart  *float64 // nil means no intervention
	InterventionEffect float64  // fraction in [0, 1], precondition
}

// Model evaluates β(t) for one scenario. It is a value type: copies are
// independent and Rate never mutates it.
type Model struct {
	params    Params
	overrides Overrides
}

// New creates a Model. Inputs are not validated here; out-of-range values
// are rejected by the scenario guards before a Model is built.
func New(params Params, overrides Overrides) Model {
	if overrides.InterventionStart != nil {
		start := *overrides.InterventionStart
		overrides.InterventionStart = &start
	}
	return Model{params: params, overrides: overrides}
}

// Params returns the shared forcing parameters of the model.
func (m Model) Params() Params {
	return m.params
}

// SeasonalFactor returns 1 + amp·sin(2π(t − phase)/365).
func SeasonalFactor(t, amp, phase float64) float64 {
	return 1.0 + amp*math.Sin(2.0*math.Pi*(t-phase)/DaysPerYear)
}

// ClimateIndex returns the synthetic climate signal sin(2πt/365) plus shock.
func ClimateIndex(t, shock float64) float64 {
	return math.Sin(2.0*math.Pi*t/DaysPerYear) + shock
}

// Rate returns the transmission rate at time t (days since start).
// The result is never negative.
func (m Model) Rate(t float64) float64 {
	seasonal := SeasonalFactor(t, m.params.SeasonalAmplitude, m.params.SeasonalPhase)
	climate := math.Exp(m.params.ClimateCoefficient * ClimateIndex(t, m.overrides.ClimateShock))
	beta := m.params.Beta0 * seasonal * climate

	if m.InterventionActive(t) {
		beta *= 1.0 - m.overrides.InterventionEffect
	}

	return math.Max(beta, 0)
}

// InterventionActive reports whether the intervention applies at time t.
func (m Model) InterventionActive(t float64) bool {
	return m.overrides.InterventionStart != nil && t >= *m.overrides.InterventionStart
}

// Multipliers returns β(t)/β₀ at each of the given times. It is used to
// drive the discrete stepper from the same forcing definition.
func (m Model) Multipliers(times []float64) []float64 {
	out := make([]float64, len(times))
	if m.params.Beta0 == 0 {
		return out
	}
	for i, t := range times {
		out[i] = m.Rate(t) / m.params.Beta0
	}
	return out
}
