// Package scenario loads experiment configuration from YAML and prepares
// the exogenous inputs the simulation core consumes: validated territory
// parameters and the anti-waste-plan intensity series.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/greenloop/biocycle/internal/agents"
	"github.com/greenloop/biocycle/internal/curve"
	"github.com/greenloop/biocycle/internal/diffusion"
	"github.com/greenloop/biocycle/internal/territory"
)

// Scenario is the top-level experiment description.
type Scenario struct {
	Name          string `yaml:"name"`
	Seed          int64  `yaml:"seed"`
	Horizon       int    `yaml:"horizon"`
	ReferenceYear int    `yaml:"reference_year"`

	SocialDynamics bool `yaml:"social_dynamics"`
	// Signal is "peers" (default) or "territory_rate".
	Signal string `yaml:"signal"`
	// IntentionRule is "interpolate" (default) or "direct".
	IntentionRule string `yaml:"intention_rule"`

	Plan        PlanConfig        `yaml:"plan"`
	Territories []TerritoryConfig `yaml:"territories"`
}

// PlanConfig describes the exogenous anti-waste plan: a sigmoid intensity
// ramp starting at StartYear with the given inflection.
type PlanConfig struct {
	StartYear  int     `yaml:"start_year"`
	Inflection float64 `yaml:"inflection"`
}

// IntentionConfig mirrors territory.IntentionParams in the YAML surface.
type IntentionConfig struct {
	Initial    *float64 `yaml:"initial"`
	Max        float64  `yaml:"max"`
	Inflection float64  `yaml:"inflection"`
}

// CapacityConfig mirrors territory.CapacityParams.
type CapacityConfig struct {
	Initial   float64 `yaml:"initial"`
	Target    float64 `yaml:"target"`
	RampYears float64 `yaml:"ramp_years"`
}

// TerritoryConfig is one sub-territory's parameter block. Pointer fields are
// required and fail loading when absent; everything else defaults to zero
// and is clamped by the core.
type TerritoryConfig struct {
	ID               int      `yaml:"id"`
	Population       *float64 `yaml:"population"`
	GrowthRate       float64  `yaml:"growth_rate"`
	FoodPerCapita    *float64 `yaml:"food_per_capita"`
	GreenPerCapita   *float64 `yaml:"green_per_capita"`
	PlanEffectFood   float64  `yaml:"plan_effect_food"`
	PlanEffectGreen  float64  `yaml:"plan_effect_green"`
	HouseholdSize    *float64 `yaml:"household_size"`
	AvgDegree        float64  `yaml:"avg_degree"`
	GreenSeasonality float64  `yaml:"green_seasonality"`

	CompostFood  IntentionConfig `yaml:"compost_food"`
	CompostGreen IntentionConfig `yaml:"compost_green"`
	CollectFood  IntentionConfig `yaml:"collect_food"`
	CollectGreen IntentionConfig `yaml:"collect_green"`

	Compost    CapacityConfig `yaml:"compost_capacity"`
	Collection CapacityConfig `yaml:"collection_capacity"`

	Adopters *AdopterConfig `yaml:"adopters"`
}

// AdopterConfig enables the segmented early/mainstream/late threshold draw.
type AdopterConfig struct {
	EarlyPercent      float64 `yaml:"early_percent"`
	MainstreamPercent float64 `yaml:"mainstream_percent"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Horizon < 1 {
		return fmt.Errorf("scenario %q: horizon must be at least 1, got %d", sc.Name, sc.Horizon)
	}
	if len(sc.Territories) == 0 {
		return fmt.Errorf("scenario %q: no territories defined", sc.Name)
	}
	switch sc.Signal {
	case "", "peers", "territory_rate":
	default:
		return fmt.Errorf("scenario %q: unknown signal source %q", sc.Name, sc.Signal)
	}
	switch sc.IntentionRule {
	case "", "interpolate", "direct":
	default:
		return fmt.Errorf("scenario %q: unknown intention rule %q", sc.Name, sc.IntentionRule)
	}
	for i, tc := range sc.Territories {
		prefix := fmt.Sprintf("scenario %q territory %d", sc.Name, i)
		if tc.Population == nil {
			return fmt.Errorf("%s: population is required", prefix)
		}
		if tc.FoodPerCapita == nil {
			return fmt.Errorf("%s: food_per_capita is required", prefix)
		}
		if tc.GreenPerCapita == nil {
			return fmt.Errorf("%s: green_per_capita is required", prefix)
		}
		if tc.HouseholdSize == nil {
			return fmt.Errorf("%s: household_size is required", prefix)
		}
		if *tc.HouseholdSize <= 0 {
			return fmt.Errorf("%s: household_size must be positive, got %v", prefix, *tc.HouseholdSize)
		}
		for _, ic := range []struct {
			name string
			cfg  IntentionConfig
		}{
			{"compost_food", tc.CompostFood},
			{"compost_green", tc.CompostGreen},
			{"collect_food", tc.CollectFood},
			{"collect_green", tc.CollectGreen},
		} {
			if ic.cfg.Initial == nil {
				return fmt.Errorf("%s: %s.initial is required", prefix, ic.name)
			}
		}
	}
	return nil
}

// PlanIntensity builds the anti-waste-plan series for the scenario horizon:
// zero before the plan starts, then a sigmoid ramp toward saturation.
func (sc *Scenario) PlanIntensity() []float64 {
	series := make([]float64, sc.Horizon)
	for y := range series {
		if y < sc.Plan.StartYear {
			continue
		}
		series[y] = curve.Sigmoid(float64(y-sc.Plan.StartYear), sc.Plan.Inflection)
	}
	return series
}

// SignalSource maps the YAML signal name onto the diffusion enum.
func (sc *Scenario) SignalSource() diffusion.SignalSource {
	if sc.Signal == "territory_rate" {
		return diffusion.SignalTerritoryRate
	}
	return diffusion.SignalPeers
}

// IntentionPolicy maps the YAML rule name onto the diffusion enum.
func (sc *Scenario) IntentionPolicy() diffusion.IntentionPolicy {
	if sc.IntentionRule == "direct" {
		return diffusion.PolicyDirect
	}
	return diffusion.PolicyInterpolate
}

// Options assembles the run-wide options shared by all territories.
func (sc *Scenario) Options() territory.Options {
	return territory.Options{
		Horizon:           sc.Horizon,
		ReferenceYear:     sc.ReferenceYear,
		Seed:              sc.Seed,
		UseSocialDynamics: sc.SocialDynamics,
		Signal:            sc.SignalSource(),
		Policy:            sc.IntentionPolicy(),
		PlanIntensity:     sc.PlanIntensity(),
	}
}

// Params converts one territory block into core parameters.
func (tc *TerritoryConfig) Params() territory.Params {
	p := territory.Params{
		ID:                tc.ID,
		InitialPopulation: *tc.Population,
		GrowthRate:        tc.GrowthRate,
		FoodPerCapita:     *tc.FoodPerCapita,
		GreenPerCapita:    *tc.GreenPerCapita,
		PlanEffectFood:    tc.PlanEffectFood,
		PlanEffectGreen:   tc.PlanEffectGreen,
		CompostFood:       tc.CompostFood.params(),
		CompostGreen:      tc.CompostGreen.params(),
		CollectFood:       tc.CollectFood.params(),
		CollectGreen:      tc.CollectGreen.params(),
		Compost:           territory.CapacityParams(tc.Compost),
		Collection:        territory.CapacityParams(tc.Collection),
		HouseholdSize:     *tc.HouseholdSize,
		AvgDegree:         tc.AvgDegree,
		GreenSeasonality:  tc.GreenSeasonality,
	}
	if p.AvgDegree == 0 {
		p.AvgDegree = 5 // historical default neighborhood size
	}
	if tc.Adopters != nil {
		p.Thresholds = agents.ThresholdConfig{
			Segmented:       true,
			EarlyShare:      tc.Adopters.EarlyPercent / 100,
			MainstreamShare: tc.Adopters.MainstreamPercent / 100,
		}
	}
	return p
}

func (ic IntentionConfig) params() territory.IntentionParams {
	return territory.IntentionParams{
		Initial:    *ic.Initial,
		Max:        ic.Max,
		Inflection: ic.Inflection,
	}
}
