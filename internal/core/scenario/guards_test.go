package scenario

import (
	"errors"
	"math"
	"testing"

	"github.com/example/climseir/internal/core/forcing"
	"github.com/example/climseir/internal/core/seir"
)

func validRunContext() RunContext {
	start := 180.0
	return RunContext{
		Population: 1_000_000,
		Initial:    seir.State{S: 999_970, E: 20, I: 10},
		Rates:      seir.Rates{Sigma: 0.1, Gamma: 1.0 / 14},
		Forcing:    forcing.Params{Beta0: 0.35, SeasonalAmplitude: 0.2, SeasonalPhase: 30, ClimateCoefficient: 0.25},
		Scenarios: map[string]Definition{
			"baseline":     {},
			"intervention": {InterventionStart: &start, InterventionEffect: 0.3},
		},
		Times: []float64{0, 1, 2, 3},
	}
}

func TestCanRun(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*RunContext)
		wantAllowed bool
		wantField   string
	}{
		{
			name:        "valid batch",
			mutate:      func(*RunContext) {},
			wantAllowed: true,
		},
		{
			name:      "zero population",
			mutate:    func(c *RunContext) { c.Population = 0 },
			wantField: "population",
		},
		{
			name:      "negative exposed",
			mutate:    func(c *RunContext) { c.Initial.E = -1; c.Initial.S += 21 },
			wantField: "initial.E",
		},
		{
			name:      "compartments do not sum to population",
			mutate:    func(c *RunContext) { c.Initial.S = 10 },
			wantField: "initial",
		},
		{
			name:      "zero sigma",
			mutate:    func(c *RunContext) { c.Rates.Sigma = 0 },
			wantField: "rates.sigma",
		},
		{
			name:      "NaN gamma",
			mutate:    func(c *RunContext) { c.Rates.Gamma = math.NaN() },
			wantField: "rates.gamma",
		},
		{
			name:      "zero beta0",
			mutate:    func(c *RunContext) { c.Forcing.Beta0 = 0 },
			wantField: "forcing.beta0",
		},
		{
			name:        "amplitude zero is allowed",
			mutate:      func(c *RunContext) { c.Forcing.SeasonalAmplitude = 0 },
			wantAllowed: true,
		},
		{
			name:      "amplitude one is rejected",
			mutate:    func(c *RunContext) { c.Forcing.SeasonalAmplitude = 1 },
			wantField: "forcing.seasonal_amplitude",
		},
		{
			name:        "negative climate coefficient is allowed",
			mutate:      func(c *RunContext) { c.Forcing.ClimateCoefficient = -0.4 },
			wantAllowed: true,
		},
		{
			name:      "no scenarios",
			mutate:    func(c *RunContext) { c.Scenarios = nil },
			wantField: "scenarios",
		},
		{
			name: "effect of one is allowed",
			mutate: func(c *RunContext) {
				c.Scenarios["full"] = Definition{InterventionEffect: 1}
			},
			wantAllowed: true,
		},
		{
			name: "effect above one is rejected",
			mutate: func(c *RunContext) {
				c.Scenarios["overdone"] = Definition{InterventionEffect: 1.01}
			},
			wantField: "scenarios.overdone.intervention_effect",
		},
		{
			name: "negative effect is rejected",
			mutate: func(c *RunContext) {
				c.Scenarios["backfire"] = Definition{InterventionEffect: -0.1}
			},
			wantField: "scenarios.backfire.intervention_effect",
		},
		{
			name:      "non-increasing times",
			mutate:    func(c *RunContext) { c.Times = []float64{0, 2, 2} },
			wantField: "times",
		},
		{
			name:      "no times",
			mutate:    func(c *RunContext) { c.Times = nil },
			wantField: "times",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := validRunContext()
			tt.mutate(&ctx)

			result := CanRun(ctx)
			if result.Allowed != tt.wantAllowed {
				t.Fatalf("Allowed = %v, want %v (reason: %s)", result.Allowed, tt.wantAllowed, result.Reason)
			}
			if !tt.wantAllowed && result.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", result.Field, tt.wantField)
			}
		})
	}
}

func TestCanRunWeekly(t *testing.T) {
	base := validRunContext()
	ctx := WeeklyContext{
		Population: base.Population,
		Initial:    base.Initial,
		Rates:      seir.Rates{Sigma: 0.5, Gamma: 1.0 / 3},
		Forcing:    base.Forcing,
		Scenarios:  base.Scenarios,
		Steps:      52,
	}

	if r := CanRunWeekly(ctx); !r.Allowed {
		t.Fatalf("expected allowed, got %s: %s", r.Field, r.Reason)
	}

	ctx.Steps = 0
	if r := CanRunWeekly(ctx); r.Allowed || r.Field != "weekly.steps" {
		t.Errorf("Steps=0: got %+v, want weekly.steps denial", r)
	}

	ctx.Steps = 10
	ctx.Rates.Sigma = 0
	if r := CanRunWeekly(ctx); r.Allowed || r.Field != "weekly.sigma" {
		t.Errorf("Sigma=0: got %+v, want weekly.sigma denial", r)
	}
}

func TestGuardResult_Error(t *testing.T) {
	t.Run("allowed result returns nil error", func(t *testing.T) {
		if err := (GuardResult{Allowed: true}).Error(); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("denied result names the field", func(t *testing.T) {
		err := GuardResult{Field: "forcing.beta0", Reason: "must be positive, got 0"}.Error()
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Field != "forcing.beta0" {
			t.Fatalf("expected ConfigError for forcing.beta0, got %v", err)
		}
		want := "invalid configuration: forcing.beta0: must be positive, got 0"
		if err.Error() != want {
			t.Errorf("error = %q, want %q", err.Error(), want)
		}
	})
}
