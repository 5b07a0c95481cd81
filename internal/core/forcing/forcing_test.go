package forcing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceParams() Params {
	return Params{
		Beta0:              0.35,
		SeasonalAmplitude:  0.20,
		SeasonalPhase:      30,
		ClimateCoefficient: 0.25,
	}
}

func ptr(v float64) *float64 { return &v }

func TestRate_MatchesClosedForm(t *testing.T) {
	p := referenceParams()
	m := New(p, Overrides{})

	for _, day := range []float64{0, 17.5, 91.25, 180, 364} {
		seasonal := 1 + p.SeasonalAmplitude*math.Sin(2*math.Pi*(day-p.SeasonalPhase)/365)
		climate := math.Exp(p.ClimateCoefficient * math.Sin(2*math.Pi*day/365))
		assert.InDelta(t, p.Beta0*seasonal*climate, m.Rate(day), 1e-15, "day %v", day)
	}
}

func TestRate_ClimateShockScalesByExpCoefficient(t *testing.T) {
	p := referenceParams()
	base := New(p, Overrides{})
	shocked := New(p, Overrides{ClimateShock: 0.5})

	for _, day := range []float64{0, 100, 250} {
		assert.InEpsilon(t, math.Exp(0.25*0.5), shocked.Rate(day)/base.Rate(day), 1e-12)
	}
}

func TestRate_NeverNegative(t *testing.T) {
	tests := []struct {
		name      string
		params    Params
		overrides Overrides
	}{
		{
			name:   "amplitude above one drives seasonal factor negative",
			params: Params{Beta0: 0.35, SeasonalAmplitude: 3, SeasonalPhase: 0, ClimateCoefficient: 2},
		},
		{
			name:      "negative coefficient with large shock",
			params:    Params{Beta0: 1, SeasonalAmplitude: 5, SeasonalPhase: 90, ClimateCoefficient: -4},
			overrides: Overrides{ClimateShock: 10},
		},
		{
			name:      "intervention effect above one",
			params:    referenceParams(),
			overrides: Overrides{InterventionStart: ptr(0), InterventionEffect: 1.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.params, tt.overrides)
			sawClamp := false
			for day := 0.0; day <= 365; day += 0.5 {
				rate := m.Rate(day)
				require.GreaterOrEqual(t, rate, 0.0, "day %v", day)
				if rate == 0 {
					sawClamp = true
				}
			}
			assert.True(t, sawClamp, "expected the raw rate to go negative somewhere")
		})
	}
}

func TestRate_InterventionReducesFromStart(t *testing.T) {
	p := referenceParams()
	none := New(p, Overrides{})
	withIntervention := New(p, Overrides{InterventionStart: ptr(180), InterventionEffect: 0.3})

	for day := 0.0; day <= 365; day++ {
		if day < 180 {
			assert.Equal(t, none.Rate(day), withIntervention.Rate(day), "day %v", day)
			continue
		}
		assert.LessOrEqual(t, withIntervention.Rate(day), (1-0.3)*none.Rate(day)+1e-15, "day %v", day)
	}
}

func TestRate_InterventionBoundaries(t *testing.T) {
	p := referenceParams()
	none := New(p, Overrides{})

	t.Run("zero effect leaves rate unchanged", func(t *testing.T) {
		m := New(p, Overrides{InterventionStart: ptr(0), InterventionEffect: 0})
		assert.Equal(t, none.Rate(200), m.Rate(200))
	})

	t.Run("full effect stops transmission", func(t *testing.T) {
		m := New(p, Overrides{InterventionStart: ptr(0), InterventionEffect: 1})
		assert.Equal(t, 0.0, m.Rate(200))
	})

	t.Run("start is inclusive", func(t *testing.T) {
		m := New(p, Overrides{InterventionStart: ptr(180), InterventionEffect: 0.5})
		assert.True(t, m.InterventionActive(180))
		assert.False(t, m.InterventionActive(179.999))
	})
}

func TestNew_CopiesInterventionStart(t *testing.T) {
	start := 100.0
	m := New(referenceParams(), Overrides{InterventionStart: &start, InterventionEffect: 0.5})
	start = 1000

	assert.True(t, m.InterventionActive(150))
}

func TestMultipliers(t *testing.T) {
	p := referenceParams()
	m := New(p, Overrides{ClimateShock: 0.2})
	times := []float64{0, 7, 14}

	got := m.Multipliers(times)

	require.Len(t, got, len(times))
	for i, day := range times {
		assert.InDelta(t, m.Rate(day)/p.Beta0, got[i], 1e-15)
	}
}
