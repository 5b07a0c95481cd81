// Package config loads and saves scenario-batch configuration files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/example/climseir/internal/core/forcing"
	"github.com/example/climseir/internal/core/scenario"
	"github.com/example/climseir/internal/core/seir"
	"github.com/example/climseir/internal/ports/primary"
)

// DefaultFileName is the file written by `climseir init` when no path is given.
const DefaultFileName = "climseir.yaml"

// Config describes one scenario batch.
type Config struct {
	Label      string                    `yaml:"label,omitempty" json:"label,omitempty"`
	Population float64                   `yaml:"population" json:"population" validate:"gt=0"`
	Initial    Initial                   `yaml:"initial" json:"initial"`
	Rates      Rates                     `yaml:"rates" json:"rates"`
	Forcing    Forcing                   `yaml:"forcing" json:"forcing"`
	Horizon    Horizon                   `yaml:"horizon" json:"horizon"`
	Scenarios  map[string]ScenarioConfig `yaml:"scenarios" json:"scenarios" validate:"min=1,dive"`
	Weekly     Weekly                    `yaml:"weekly" json:"weekly"`
	Solver     Solver                    `yaml:"solver,omitempty" json:"solver,omitempty"`
	Workers    int                       `yaml:"workers,omitempty" json:"workers,omitempty" validate:"gte=0"`
	Database   string                    `yaml:"database,omitempty" json:"database,omitempty"`
	OutputDir  string                    `yaml:"output_dir,omitempty" json:"output_dir,omitempty"`
}

// Initial holds the starting compartments. S is derived as N−E−I−R when omitted.
type Initial struct {
	S *float64 `yaml:"S,omitempty" json:"S,omitempty" validate:"omitempty,gte=0"`
	E float64  `yaml:"E" json:"E" validate:"gte=0"`
	I float64  `yaml:"I" json:"I" validate:"gte=0"`
	R float64  `yaml:"R" json:"R" validate:"gte=0"`
}

// Rates holds the daily progression rates of the continuous model.
type Rates struct {
	Sigma float64 `yaml:"sigma" json:"sigma" validate:"gt=0"`
	Gamma float64 `yaml:"gamma" json:"gamma" validate:"gt=0"`
}

// Forcing holds the shared transmission-forcing parameters.
type Forcing struct {
	Beta0              float64 `yaml:"beta0" json:"beta0" validate:"gt=0"`
	SeasonalAmplitude  float64 `yaml:"seasonal_amplitude" json:"seasonal_amplitude" validate:"gte=0,lt=1"`
	SeasonalPhase      float64 `yaml:"seasonal_phase" json:"seasonal_phase"`
	ClimateCoefficient float64 `yaml:"climate_coefficient" json:"climate_coefficient"`
}

// Horizon spans the evaluation times start, start+step, ..., end.
type Horizon struct {
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end" validate:"gtfield=Start"`
	Step  float64 `yaml:"step" json:"step" validate:"gt=0"`
}

// ScenarioConfig holds one scenario's forcing overrides.
type ScenarioConfig struct {
	ClimateShock       float64  `yaml:"climate_shock,omitempty" json:"climate_shock,omitempty"`
	InterventionStart  *float64 `yaml:"intervention_start,omitempty" json:"intervention_start,omitempty"`
	InterventionEffect float64  `yaml:"intervention_effect,omitempty" json:"intervention_effect,omitempty" validate:"gte=0,lte=1"`
}

// Weekly configures the discrete weekly stepper. Rates are per week; any
// rate left unset takes the stepper's default.
type Weekly struct {
	Steps    int      `yaml:"steps" json:"steps" validate:"gte=0"`
	StepDays float64  `yaml:"step_days,omitempty" json:"step_days,omitempty" validate:"gte=0"`
	Sigma    *float64 `yaml:"sigma,omitempty" json:"sigma,omitempty" validate:"omitempty,gt=0"`
	Gamma    *float64 `yaml:"gamma,omitempty" json:"gamma,omitempty" validate:"omitempty,gt=0"`
	Beta0    *float64 `yaml:"beta0,omitempty" json:"beta0,omitempty" validate:"omitempty,gt=0"`
}

// Solver holds optional solver overrides; zero values keep the defaults.
type Solver struct {
	RelTol   float64 `yaml:"rtol,omitempty" json:"rtol,omitempty" validate:"gte=0"`
	AbsTol   float64 `yaml:"atol,omitempty" json:"atol,omitempty" validate:"gte=0"`
	MaxSteps int     `yaml:"max_steps,omitempty" json:"max_steps,omitempty" validate:"gte=0"`
}

// Per-week defaults of the discrete stepper.
const (
	DefaultWeeklySteps = 52
	DefaultWeeklySigma = 1 / 2.0
	DefaultWeeklyGamma = 1 / 3.0
	DefaultWeeklyBeta0 = 0.35
)

// DefaultConfig returns the reference three-scenario analysis.
func DefaultConfig() *Config {
	start := 180.0
	return &Config{
		Label:      "reference",
		Population: 1_000_000,
		Initial:    Initial{E: 20, I: 10, R: 0},
		Rates:      Rates{Sigma: 1.0 / 10, Gamma: 1.0 / 14},
		Forcing: Forcing{
			Beta0:              0.35,
			SeasonalAmplitude:  0.20,
			SeasonalPhase:      30,
			ClimateCoefficient: 0.25,
		},
		Horizon: Horizon{Start: 0, End: 365, Step: 1},
		Scenarios: map[string]ScenarioConfig{
			"baseline":       {},
			"wetter_climate": {ClimateShock: 0.5},
			"intervention":   {InterventionStart: &start, InterventionEffect: 0.30},
		},
		Weekly: Weekly{Steps: DefaultWeeklySteps},
	}
}

// LoadConfig reads a configuration file. The format follows the extension:
// .yaml/.yml or .json.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .json)", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes cfg to path in the format given by its extension,
// creating parent directories as needed.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	default:
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field ranges and reports the first failure as a
// *scenario.ConfigError. Cross-field rules such as N = S+E+I+R are left
// to the run guards.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		if err := c.validateHorizon(); err != nil {
			return err
		}
		return c.validateInitial()
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	fe := verrs[0]
	return &scenario.ConfigError{Field: fieldPath(fe.Namespace()), Reason: reason(fe)}
}

func (c *Config) validateHorizon() error {
	if span := c.Horizon.End - c.Horizon.Start; c.Horizon.Step > span {
		return &scenario.ConfigError{
			Field:  "horizon.step",
			Reason: fmt.Sprintf("step %g exceeds horizon span %g", c.Horizon.Step, span),
		}
	}
	return nil
}

func (c *Config) validateInitial() error {
	if c.Initial.S == nil && c.Initial.E+c.Initial.I+c.Initial.R > c.Population {
		return &scenario.ConfigError{
			Field:  "initial",
			Reason: fmt.Sprintf("E+I+R = %g exceeds population %g", c.Initial.E+c.Initial.I+c.Initial.R, c.Population),
		}
	}
	return nil
}

// fieldPath turns "Config.scenarios[wetter].intervention_effect" into
// "scenarios.wetter.intervention_effect".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("must be greater than %s, got %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "lt":
		return fmt.Sprintf("must be less than %s, got %v", fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value())
	case "gtfield":
		return fmt.Sprintf("must be greater than %s", strings.ToLower(fe.Param()))
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// Times returns the evaluation times of the horizon, including End when it
// falls on the step grid.
func (h Horizon) Times() []float64 {
	n := int(math.Floor((h.End-h.Start)/h.Step+1e-9)) + 1
	if n <= 1 {
		return []float64{h.Start}
	}
	return floats.Span(make([]float64, n), h.Start, h.Start+float64(n-1)*h.Step)
}

// InitialState resolves the starting compartments, deriving S when omitted.
func (c *Config) InitialState() seir.State {
	s := c.Population - c.Initial.E - c.Initial.I - c.Initial.R
	if c.Initial.S != nil {
		s = *c.Initial.S
	}
	return seir.State{S: s, E: c.Initial.E, I: c.Initial.I, R: c.Initial.R}
}

// Definitions converts the configured scenarios.
func (c *Config) Definitions() map[string]scenario.Definition {
	defs := make(map[string]scenario.Definition, len(c.Scenarios))
	for name, sc := range c.Scenarios {
		defs[name] = scenario.Definition{
			ClimateShock:       sc.ClimateShock,
			InterventionStart:  sc.InterventionStart,
			InterventionEffect: sc.InterventionEffect,
		}
	}
	return defs
}

func (c *Config) forcingParams() forcing.Params {
	return forcing.Params{
		Beta0:              c.Forcing.Beta0,
		SeasonalAmplitude:  c.Forcing.SeasonalAmplitude,
		SeasonalPhase:      c.Forcing.SeasonalPhase,
		ClimateCoefficient: c.Forcing.ClimateCoefficient,
	}
}

// ToRunRequest builds the continuous batch request.
func (c *Config) ToRunRequest() primary.RunScenariosRequest {
	opts := seir.DefaultSolverOptions()
	if c.Solver.RelTol > 0 {
		opts.RelTol = c.Solver.RelTol
	}
	if c.Solver.AbsTol > 0 {
		opts.AbsTol = c.Solver.AbsTol
	}
	if c.Solver.MaxSteps > 0 {
		opts.MaxSteps = c.Solver.MaxSteps
	}

	return primary.RunScenariosRequest{
		Label:      c.Label,
		Population: c.Population,
		Initial:    c.InitialState(),
		Rates:      seir.Rates{Sigma: c.Rates.Sigma, Gamma: c.Rates.Gamma},
		Forcing:    c.forcingParams(),
		Scenarios:  c.Definitions(),
		Times:      c.Horizon.Times(),
		Solver:     opts,
		Workers:    c.Workers,
		OutputDir:  c.OutputDir,
	}
}

// ToWeeklyRequest builds the weekly batch request. Unset per-week rates take
// the stepper defaults and the climate forcing is shared with the continuous run.
func (c *Config) ToWeeklyRequest() primary.RunWeeklyRequest {
	steps := c.Weekly.Steps
	if steps == 0 {
		steps = DefaultWeeklySteps
	}
	rates := seir.Rates{Sigma: DefaultWeeklySigma, Gamma: DefaultWeeklyGamma}
	if c.Weekly.Sigma != nil {
		rates.Sigma = *c.Weekly.Sigma
	}
	if c.Weekly.Gamma != nil {
		rates.Gamma = *c.Weekly.Gamma
	}
	params := c.forcingParams()
	params.Beta0 = DefaultWeeklyBeta0
	if c.Weekly.Beta0 != nil {
		params.Beta0 = *c.Weekly.Beta0
	}

	return primary.RunWeeklyRequest{
		Label:      c.Label,
		Population: c.Population,
		Initial:    c.InitialState(),
		Rates:      rates,
		Forcing:    params,
		Scenarios:  c.Definitions(),
		Steps:      steps,
		StepDays:   c.Weekly.StepDays,
		OutputDir:  c.OutputDir,
	}
}
