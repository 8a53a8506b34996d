// Package territory implements the per-year coupled flow-allocation and
// social-diffusion simulation for one collection territory.
package territory

import (
	"fmt"
	"math"

	"github.com/greenloop/biocycle/internal/agents"
	"github.com/greenloop/biocycle/internal/diffusion"
)

// IntentionParams describes one behavioral-intention fraction: its observed
// baseline, its ceiling, and the inflection point of the S-shaped ramp used
// when social dynamics are disabled.
type IntentionParams struct {
	Initial    float64
	Max        float64
	Inflection float64
}

// CapacityParams describes one pathway's infrastructure roll-out: initial
// capacity, planned target, and the linear ramp duration in years.
type CapacityParams struct {
	Initial   float64
	Target    float64
	RampYears float64
}

// Params holds the per-territory scalars consumed by the simulator. The
// scenario loader validates presence of required fields; out-of-range values
// are clamped here rather than rejected.
type Params struct {
	ID int

	InitialPopulation float64
	GrowthRate        float64
	FoodPerCapita     float64 // tonnes/person/year
	GreenPerCapita    float64 // tonnes/person/year
	PlanEffectFood    float64 // anti-waste plan effectiveness on food
	PlanEffectGreen   float64 // anti-waste plan effectiveness on green

	CompostFood  IntentionParams
	CompostGreen IntentionParams
	CollectFood  IntentionParams
	CollectGreen IntentionParams

	Compost    CapacityParams
	Collection CapacityParams

	HouseholdSize float64 // persons per household
	AvgDegree     float64 // expected peer out-degree

	// GreenSeasonality is the amplitude of the deterministic year-to-year
	// perturbation applied to green waste production. 0 disables it.
	GreenSeasonality float64

	Thresholds agents.ThresholdConfig
}

// Options are the run-wide settings shared by all territories of a scenario.
type Options struct {
	Horizon       int
	ReferenceYear int
	Seed          int64

	UseSocialDynamics bool
	Signal            diffusion.SignalSource
	Policy            diffusion.IntentionPolicy

	// PlanIntensity is the exogenous anti-waste-plan series, one entry per
	// simulated year (length >= Horizon).
	PlanIntensity []float64
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// clamp forces fractions into [0, 1] and capacities/rates to be
// non-negative. Historical runs tolerated out-of-range inputs, so the
// boundary clamps instead of rejecting.
func (p *Params) clamp() {
	p.InitialPopulation = math.Max(0, p.InitialPopulation)
	p.FoodPerCapita = math.Max(0, p.FoodPerCapita)
	p.GreenPerCapita = math.Max(0, p.GreenPerCapita)
	p.PlanEffectFood = clamp01(p.PlanEffectFood)
	p.PlanEffectGreen = clamp01(p.PlanEffectGreen)

	for _, ip := range []*IntentionParams{&p.CompostFood, &p.CompostGreen, &p.CollectFood, &p.CollectGreen} {
		ip.Initial = clamp01(ip.Initial)
		ip.Max = clamp01(ip.Max)
		if ip.Max < ip.Initial {
			ip.Max = ip.Initial
		}
	}
	for _, cp := range []*CapacityParams{&p.Compost, &p.Collection} {
		cp.Initial = math.Max(0, cp.Initial)
		cp.Target = math.Max(0, cp.Target)
	}

	p.AvgDegree = math.Max(0, p.AvgDegree)
	p.GreenSeasonality = clamp01(p.GreenSeasonality)
	p.Thresholds.EarlyShare = clamp01(p.Thresholds.EarlyShare)
	p.Thresholds.MainstreamShare = clamp01(p.Thresholds.MainstreamShare)
}

// validate rejects combinations the simulator cannot run with at all.
func (p *Params) validate() error {
	if p.HouseholdSize <= 0 {
		return fmt.Errorf("territory %d: household size must be positive, got %v", p.ID, p.HouseholdSize)
	}
	return nil
}

func (o *Options) validate() error {
	if o.Horizon < 1 {
		return fmt.Errorf("horizon must be at least 1 year, got %d", o.Horizon)
	}
	if len(o.PlanIntensity) < o.Horizon {
		return fmt.Errorf("plan intensity series has %d entries, need %d", len(o.PlanIntensity), o.Horizon)
	}
	return nil
}
