package seir

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Dormand–Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	// Difference between the 5th and 4th order weights.
	dpE = [7]float64{
		71.0 / 57600, 0, -71.0 / 16695, 71.0 / 1920, -17253.0 / 339200, 22.0 / 525, -1.0 / 40,
	}
)

const (
	errorExponent = -1.0 / 5
	safety        = 0.9
	minFactor     = 0.2
	maxFactor     = 10.0
)

// SolverOptions controls the adaptive integrator.
type SolverOptions struct {
	RelTol      float64
	AbsTol      float64
	MaxSteps    int     // accepted plus rejected steps; 0 means DefaultMaxSteps
	InitialStep float64 // 0 selects a step automatically
	MaxStep     float64 // 0 means unbounded
}

// DefaultMaxSteps bounds the work of one integration.
const DefaultMaxSteps = 1_000_000

// DefaultSolverOptions returns the tolerances used for all scenario runs.
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{RelTol: 1e-7, AbsTol: 1e-9}
}

func (o SolverOptions) withDefaults() SolverOptions {
	d := DefaultSolverOptions()
	if o.RelTol <= 0 {
		o.RelTol = d.RelTol
	}
	if o.AbsTol <= 0 {
		o.AbsTol = d.AbsTol
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	return o
}

// SolverStats reports the work done by one integration.
type SolverStats struct {
	Steps       int // accepted steps
	Rejected    int // rejected step attempts
	Evaluations int // right-hand side evaluations
}

// system is an ODE right-hand side writing dy/dt at (t, y) into dy.
type system func(t float64, y, dy []float64)

// observer receives the solution at the i-th requested time. y must not be retained.
type observer func(i int, t float64, y []float64) error

// solveDOPRI integrates f from times[0] through times[len(times)-1] and
// reports the solution exactly at every requested time. Steps are clipped
// so that each requested time is hit by an accepted step.
func solveDOPRI(ctx context.Context, f system, y0 []float64, times []float64, opts SolverOptions, observe observer) (SolverStats, error) {
	var stats SolverStats
	opts = opts.withDefaults()

	n := len(y0)
	y := append([]float64(nil), y0...)
	t := times[0]

	if err := observe(0, t, y); err != nil {
		return stats, &SolverError{Time: t, Cause: err}
	}
	if len(times) == 1 {
		return stats, nil
	}

	var k [7][]float64
	for i := range k {
		k[i] = make([]float64, n)
	}
	ynew := make([]float64, n)
	ytmp := make([]float64, n)
	errVec := make([]float64, n)

	eval := func(t float64, y, dy []float64) {
		f(t, y, dy)
		stats.Evaluations++
	}

	eval(t, y, k[0])
	if !allFinite(k[0]) {
		return stats, &SolverError{Time: t, Cause: ErrNonFinite}
	}

	span := times[len(times)-1] - t
	maxStep := opts.MaxStep
	if maxStep <= 0 || maxStep > span {
		maxStep = span
	}

	h := opts.InitialStep
	if h <= 0 {
		h = initialStep(eval, t, y, k[0], span, opts, ytmp, ynew)
	}
	h = math.Min(h, maxStep)

	next := 1
	rejectedLast := false
	for next < len(times) {
		if err := ctx.Err(); err != nil {
			return stats, &SolverError{Time: t, Step: stats.Steps, Cause: err}
		}
		if stats.Steps+stats.Rejected >= opts.MaxSteps {
			return stats, &SolverError{Time: t, Step: stats.Steps, Cause: ErrTooManySteps}
		}

		minStep := 10 * math.Abs(math.Nextafter(t, math.Inf(1))-t)
		if h < minStep {
			return stats, &SolverError{Time: t, Step: stats.Steps, Cause: ErrStepTooSmall}
		}

		target := times[next]
		step := h
		landing := false
		if t+step >= target {
			step = target - t
			landing = true
		}

		for s := 1; s < 7; s++ {
			copy(ytmp, y)
			for j := 0; j < s; j++ {
				if a := dpA[s][j]; a != 0 {
					floats.AddScaled(ytmp, step*a, k[j])
				}
			}
			eval(t+dpC[s]*step, ytmp, k[s])
		}
		// The last stage input is the 5th order solution (FSAL).
		copy(ynew, ytmp)

		for i := range errVec {
			errVec[i] = 0
		}
		for j := 0; j < 7; j++ {
			if e := dpE[j]; e != 0 {
				floats.AddScaled(errVec, step*e, k[j])
			}
		}
		errNorm := scaledRMS(errVec, y, ynew, opts)

		if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) || errNorm > 1 {
			stats.Rejected++
			factor := minFactor
			if !math.IsNaN(errNorm) && !math.IsInf(errNorm, 0) {
				factor = math.Max(minFactor, safety*math.Pow(errNorm, errorExponent))
			}
			h = step * factor
			rejectedLast = true
			continue
		}

		stats.Steps++
		if landing {
			t = target
		} else {
			t += step
		}
		y, ynew = ynew, y
		k[0], k[6] = k[6], k[0]

		factor := maxFactor
		if errNorm > 0 {
			factor = math.Min(maxFactor, safety*math.Pow(errNorm, errorExponent))
		}
		if rejectedLast {
			factor = math.Min(1, factor)
		}
		rejectedLast = false

		proposed := step * factor
		if landing && step < h {
			// A step clipped to hit an output time says little about the
			// step the solution can tolerate next.
			proposed = math.Max(proposed, h)
		}
		h = math.Min(proposed, maxStep)

		if landing {
			if err := observe(next, t, y); err != nil {
				return stats, &SolverError{Time: t, Step: stats.Steps, Cause: err}
			}
			next++
		}
	}

	return stats, nil
}

// initialStep picks a first step from the local scale of the solution and
// its derivative (Hairer, Nørsett & Wanner, II.4).
func initialStep(eval system, t float64, y, f0 []float64, span float64, opts SolverOptions, y1, f1 []float64) float64 {
	scale := make([]float64, len(y))
	for i, v := range y {
		scale[i] = opts.AbsTol + math.Abs(v)*opts.RelTol
	}

	d0 := rmsRatio(y, scale)
	d1 := rmsRatio(f0, scale)

	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, span)

	floats.AddScaledTo(y1, y, h0, f0)
	eval(t+h0, y1, f1)

	floats.Sub(f1, f0)
	d2 := rmsRatio(f1, scale) / h0

	var h1 float64
	if math.Max(d1, d2) <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/5)
	}

	return math.Min(math.Min(100*h0, h1), span)
}

func scaledRMS(errVec, y, ynew []float64, opts SolverOptions) float64 {
	var sum float64
	for i, e := range errVec {
		sc := opts.AbsTol + opts.RelTol*math.Max(math.Abs(y[i]), math.Abs(ynew[i]))
		r := e / sc
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(errVec)))
}

func rmsRatio(v, scale []float64) float64 {
	var sum float64
	for i, x := range v {
		r := x / scale[i]
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(v)))
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
