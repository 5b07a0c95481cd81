// Package seir contains the compartmental epidemic model and its two
// numerical paths: an adaptive continuous-time integrator and a fixed-step
// weekly recurrence.
package seir

import "math"

// Indices of the compartments in a state vector.
const (
	IdxS = iota
	IdxE
	IdxI
	IdxR
	NumCompartments
)

// Compartments lists the compartment labels in state-vector order.
var Compartments = [NumCompartments]string{"S", "E", "I", "R"}

// State is one snapshot of the four compartments.
type State struct {
	S, E, I, R float64
}

// Total returns S+E+I+R.
func (s State) Total() float64 {
	return s.S + s.E + s.I + s.R
}

// Vector returns the state as a freshly allocated slice in compartment order.
func (s State) Vector() []float64 {
	return []float64{s.S, s.E, s.I, s.R}
}

// StateFromVector builds a State from a compartment-ordered slice.
func StateFromVector(y []float64) State {
	return State{S: y[IdxS], E: y[IdxE], I: y[IdxI], R: y[IdxR]}
}

func (s State) finite() bool {
	for _, v := range s.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) nonNegative() bool {
	return s.S >= 0 && s.E >= 0 && s.I >= 0 && s.R >= 0
}

// Rates holds the epidemiological rates of one run.
type Rates struct {
	Sigma float64 // 1 / mean incubation period
	Gamma float64 // 1 / mean infectious period
}

// RateFunc yields the transmission rate β(t). forcing.Model satisfies it.
type RateFunc interface {
	Rate(t float64) float64
}

// RateFunction adapts an ordinary function to RateFunc.
type RateFunction func(t float64) float64

// Rate calls f(t).
func (f RateFunction) Rate(t float64) float64 {
	return f(t)
}

// Derivatives writes the SEIR right-hand side at (t, y) into dy.
//
//	λ = β(t)·I/N
//	dS = −λS, dE = λS − σE, dI = σE − γI, dR = γI
func Derivatives(t float64, y []float64, n float64, rates Rates, beta RateFunc, dy []float64) {
	lambda := beta.Rate(t) * y[IdxI] / n
	infections := lambda * y[IdxS]
	onsets := rates.Sigma * y[IdxE]
	recoveries := rates.Gamma * y[IdxI]

	dy[IdxS] = -infections
	dy[IdxE] = infections - onsets
	dy[IdxI] = onsets - recoveries
	dy[IdxR] = recoveries
}

// Trajectory is the output of one simulation: parallel, time-ordered
// sequences with one entry per evaluated time point.
type Trajectory struct {
	Time []float64
	S    []float64
	E    []float64
	I    []float64
	R    []float64
}

func newTrajectory(capacity int) *Trajectory {
	return &Trajectory{
		Time: make([]float64, 0, capacity),
		S:    make([]float64, 0, capacity),
		E:    make([]float64, 0, capacity),
		I:    make([]float64, 0, capacity),
		R:    make([]float64, 0, capacity),
	}
}

func (tr *Trajectory) append(t float64, s State) {
	tr.Time = append(tr.Time, t)
	tr.S = append(tr.S, s.S)
	tr.E = append(tr.E, s.E)
	tr.I = append(tr.I, s.I)
	tr.R = append(tr.R, s.R)
}

// Len returns the number of time points.
func (tr *Trajectory) Len() int {
	return len(tr.Time)
}

// At returns the state at index i.
func (tr *Trajectory) At(i int) State {
	return State{S: tr.S[i], E: tr.E[i], I: tr.I[i], R: tr.R[i]}
}
