package scenario

import (
	"errors"
	"fmt"
	"math"

	"github.com/example/climseir/internal/core/forcing"
	"github.com/example/climseir/internal/core/seir"
)

// ErrInvalidConfig is the sentinel wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError identifies the configuration field that failed validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Field   string
	Reason  string
}

// Error converts the guard result to a *ConfigError if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &ConfigError{Field: r.Field, Reason: r.Reason}
}

func allowed() GuardResult {
	return GuardResult{Allowed: true}
}

func deny(field, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConservationTolerance is the relative slack allowed between S₀+E₀+I₀+R₀ and N.
const ConservationTolerance = 1e-9

// RunContext provides context for the continuous-run guard.
type RunContext struct {
	Population float64
	Initial    seir.State
	Rates      seir.Rates
	Forcing    forcing.Params
	Scenarios  map[string]Definition
	Times      []float64
}

// CanRun evaluates whether a scenario batch can be integrated.
// Rules:
// - population > 0, initial compartments finite and non-negative, summing to N
// - sigma, gamma > 0
// - beta0 > 0, seasonal amplitude in [0, 1), phase and coefficient finite
// - at least one scenario; intervention effect in [0, 1]; shock and start finite
// - evaluation times non-empty and strictly increasing
func CanRun(ctx RunContext) GuardResult {
	if r := checkPopulation(ctx.Population, ctx.Initial); !r.Allowed {
		return r
	}
	if r := checkRates("rates", ctx.Rates); !r.Allowed {
		return r
	}
	if r := checkForcing(ctx.Forcing); !r.Allowed {
		return r
	}
	if r := checkScenarios(ctx.Scenarios); !r.Allowed {
		return r
	}
	return checkTimes(ctx.Times)
}

// WeeklyContext provides context for the discrete-run guard.
type WeeklyContext struct {
	Population float64
	Initial    seir.State
	Rates      seir.Rates
	Forcing    forcing.Params
	Scenarios  map[string]Definition
	Steps      int
}

// CanRunWeekly evaluates whether a weekly batch can be stepped.
// Rules: as CanRun, with a positive step count in place of evaluation times.
func CanRunWeekly(ctx WeeklyContext) GuardResult {
	if r := checkPopulation(ctx.Population, ctx.Initial); !r.Allowed {
		return r
	}
	if r := checkRates("weekly", ctx.Rates); !r.Allowed {
		return r
	}
	if r := checkForcing(ctx.Forcing); !r.Allowed {
		return r
	}
	if r := checkScenarios(ctx.Scenarios); !r.Allowed {
		return r
	}
	if ctx.Steps < 1 {
		return deny("weekly.steps", "must be at least 1, got %d", ctx.Steps)
	}
	return allowed()
}

func checkPopulation(n float64, initial seir.State) GuardResult {
	if !finite(n) || n <= 0 {
		return deny("population", "must be positive, got %g", n)
	}

	values := initial.Vector()
	for i, v := range values {
		field := "initial." + seir.Compartments[i]
		if !finite(v) {
			return deny(field, "must be finite, got %g", v)
		}
		if v < 0 {
			return deny(field, "must be non-negative, got %g", v)
		}
	}

	if total := initial.Total(); math.Abs(total-n) > ConservationTolerance*n {
		return deny("initial", "compartments sum to %g, want population %g", total, n)
	}
	return allowed()
}

func checkRates(prefix string, r seir.Rates) GuardResult {
	if !finite(r.Sigma) || r.Sigma <= 0 {
		return deny(prefix+".sigma", "must be positive, got %g", r.Sigma)
	}
	if !finite(r.Gamma) || r.Gamma <= 0 {
		return deny(prefix+".gamma", "must be positive, got %g", r.Gamma)
	}
	return allowed()
}

func checkForcing(p forcing.Params) GuardResult {
	if !finite(p.Beta0) || p.Beta0 <= 0 {
		return deny("forcing.beta0", "must be positive, got %g", p.Beta0)
	}
	if !finite(p.SeasonalAmplitude) || p.SeasonalAmplitude < 0 || p.SeasonalAmplitude >= 1 {
		return deny("forcing.seasonal_amplitude", "must be in [0, 1), got %g", p.SeasonalAmplitude)
	}
	if !finite(p.SeasonalPhase) {
		return deny("forcing.seasonal_phase", "must be finite, got %g", p.SeasonalPhase)
	}
	if !finite(p.ClimateCoefficient) {
		return deny("forcing.climate_coefficient", "must be finite, got %g", p.ClimateCoefficient)
	}
	return allowed()
}

func checkScenarios(defs map[string]Definition) GuardResult {
	if len(defs) == 0 {
		return deny("scenarios", "at least one scenario is required")
	}
	for _, name := range SortedNames(defs) {
		if name == "" {
			return deny("scenarios", "scenario name must not be empty")
		}
		d := defs[name]
		prefix := "scenarios." + name
		if !finite(d.ClimateShock) {
			return deny(prefix+".climate_shock", "must be finite, got %g", d.ClimateShock)
		}
		if d.InterventionStart != nil && !finite(*d.InterventionStart) {
			return deny(prefix+".intervention_start", "must be finite, got %g", *d.InterventionStart)
		}
		if !finite(d.InterventionEffect) || d.InterventionEffect < 0 || d.InterventionEffect > 1 {
			return deny(prefix+".intervention_effect", "must be in [0, 1], got %g", d.InterventionEffect)
		}
	}
	return allowed()
}

func checkTimes(times []float64) GuardResult {
	if len(times) == 0 {
		return deny("times", "at least one evaluation time is required")
	}
	for i, t := range times {
		if !finite(t) {
			return deny("times", "times[%d] must be finite", i)
		}
		if i > 0 && !(t > times[i-1]) {
			return deny("times", "must be strictly increasing (times[%d]=%g after %g)", i, t, times[i-1])
		}
	}
	return allowed()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
