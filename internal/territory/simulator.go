// Per-year iteration: production, diffusion, intentions, capacity-constrained
// allocation (composting then collection), residual/valorisation by
// conservation, indicators, household disaggregation.
package territory

import (
	"log/slog"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/greenloop/biocycle/internal/agents"
	"github.com/greenloop/biocycle/internal/curve"
	"github.com/greenloop/biocycle/internal/diffusion"
	"github.com/greenloop/biocycle/internal/flows"
	"github.com/greenloop/biocycle/internal/network"
)

// massBalanceTolerance is the advisory threshold, in tonnes, beyond which a
// per-type mass-balance discrepancy is logged.
const massBalanceTolerance = 1e-6

// Simulator runs one territory over the full horizon. Years are computed
// strictly in increasing order; after Run completes the series is never
// mutated again.
type Simulator struct {
	params Params
	opts   Options

	series     *series
	households []*agents.Household
	graph      *network.Graph
	engine     *diffusion.Engine
	seasonal   opensimplex.Noise

	// Sigmoid phase offsets so intention ramps start at their baselines.
	rampOffsets [4]int

	done bool
}

// New sets up a territory simulator: allocates the full-horizon series,
// spawns the household agents, builds the peer network, and computes the
// baseline year 0 from the input parameters.
func New(params Params, opts Options) (*Simulator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	params.clamp()

	// Seed derivation decorrelates sub-territories while staying
	// reproducible for a fixed run seed.
	seed := opts.Seed + int64(params.ID)

	numHouseholds := int(params.InitialPopulation / params.HouseholdSize)
	spawner := agents.NewSpawner(seed, params.Thresholds)
	households := spawner.SpawnPopulation(numHouseholds, params.ID, params.HouseholdSize)

	netRNG := rand.New(rand.NewSource(seed + 400))
	graph := network.Build(numHouseholds, params.AvgDegree, netRNG)

	sim := &Simulator{
		params:     params,
		opts:       opts,
		series:     newSeries(opts.Horizon),
		households: households,
		graph:      graph,
		engine:     diffusion.NewEngine(graph, households, opts.Signal),
	}
	if params.GreenSeasonality > 0 {
		sim.seasonal = opensimplex.NewNormalized(seed + 500)
	}
	sim.rampOffsets = [4]int{
		curve.TimeToReach(params.CompostFood.Initial, params.CompostFood.Inflection),
		curve.TimeToReach(params.CompostGreen.Initial, params.CompostGreen.Inflection),
		curve.TimeToReach(params.CollectFood.Initial, params.CollectFood.Inflection),
		curve.TimeToReach(params.CollectGreen.Initial, params.CollectGreen.Inflection),
	}

	sim.computeYear(0)
	return sim, nil
}

// Run computes years 1..horizon-1. It is a fixed-length deterministic loop;
// calling it again after completion is a no-op.
func (s *Simulator) Run() {
	if s.done {
		return
	}
	for y := 1; y < s.opts.Horizon; y++ {
		s.computeYear(y)
	}
	s.done = true
	slog.Debug("territory run complete",
		"territory", s.params.ID,
		"years", s.opts.Horizon,
		"households", len(s.households),
	)
}

// Horizon returns the number of simulated years.
func (s *Simulator) Horizon() int {
	return s.opts.Horizon
}

// Year returns the read-only record for a computed year.
func (s *Simulator) Year(y int) Record {
	rec := s.series.record(y)
	rec.TerritoryID = s.params.ID
	rec.CalendarYear = s.opts.ReferenceYear + y
	return rec
}

// Households exposes the agent population for the output layer. The caller
// must not mutate the returned agents.
func (s *Simulator) Households() []*agents.Household {
	return s.households
}

// computeYear runs the fixed step order for one year. Every step reads only
// state from year y or earlier and writes only year-y fields.
func (s *Simulator) computeYear(y int) {
	s.computeProduction(y)
	s.updateDiffusion(y)
	s.updateIntentions(y)
	s.updateCapacities(y)
	s.allocateCompost(y)
	s.allocateCollection(y)
	s.computeResidual(y)
	s.computeIndicators(y)
	s.distributeToHouseholds(y)
}

func (s *Simulator) computeProduction(y int) {
	ser := s.series
	// Closed-form growth avoids compounding drift over long horizons.
	ser.population[y] = s.params.InitialPopulation * math.Pow(1+s.params.GrowthRate, float64(y))
	ser.planIntensity[y] = clamp01(s.opts.PlanIntensity[y])

	plan := ser.planIntensity[y]
	ser.foodProduced[y] = math.Max(0, s.params.FoodPerCapita*ser.population[y]*(1-s.params.PlanEffectFood*plan))

	green := s.params.GreenPerCapita * ser.population[y] * (1 - s.params.PlanEffectGreen*plan)
	if s.seasonal != nil {
		// Mild weather-driven variation on garden waste, deterministic for
		// a fixed seed.
		wobble := 2*s.seasonal.Eval2(float64(y)*0.37, float64(s.params.ID)) - 1
		green *= 1 + s.params.GreenSeasonality*wobble
	}
	ser.greenProduced[y] = math.Max(0, green)
}

func (s *Simulator) updateDiffusion(y int) {
	if y == 0 || !s.opts.UseSocialDynamics || len(s.households) == 0 {
		if y > 0 {
			// Carry rates forward so the series stays meaningful when
			// social dynamics are off.
			s.series.compostAdoptionRate[y] = s.engine.AdoptionRate(agents.BehaviorCompost)
			s.series.collectionAdoptionRate[y] = s.engine.AdoptionRate(agents.BehaviorCollection)
		}
		return
	}

	s.series.compostAdoptionRate[y] = s.engine.Step(agents.BehaviorCompost)

	// Collection sorting can only spread once the infrastructure exists.
	if s.capacityAt(s.params.Collection, y) > 0 {
		s.series.collectionAdoptionRate[y] = s.engine.Step(agents.BehaviorCollection)
	} else {
		s.series.collectionAdoptionRate[y] = s.engine.AdoptionRate(agents.BehaviorCollection)
	}
}

func (s *Simulator) updateIntentions(y int) {
	ser := s.series
	p := s.params

	if y == 0 {
		ser.compostFoodIntention[y] = p.CompostFood.Initial
		ser.compostGreenIntention[y] = p.CompostGreen.Initial
		ser.collectFoodIntention[y] = p.CollectFood.Initial
		ser.collectGreenIntention[y] = p.CollectGreen.Initial
	} else if s.opts.UseSocialDynamics {
		compostRate := ser.compostAdoptionRate[y]
		collectRate := ser.collectionAdoptionRate[y]
		ser.compostFoodIntention[y] = diffusion.Intention(s.opts.Policy, p.CompostFood.Initial, compostRate)
		ser.compostGreenIntention[y] = diffusion.Intention(s.opts.Policy, p.CompostGreen.Initial, compostRate)
		if s.capacityAt(p.Collection, y) > 0 {
			ser.collectFoodIntention[y] = diffusion.Intention(s.opts.Policy, p.CollectFood.Initial, collectRate)
			ser.collectGreenIntention[y] = diffusion.Intention(s.opts.Policy, p.CollectGreen.Initial, collectRate)
		}
	} else {
		ser.compostFoodIntention[y] = s.rampIntention(p.CompostFood, s.rampOffsets[0], y)
		ser.compostGreenIntention[y] = s.rampIntention(p.CompostGreen, s.rampOffsets[1], y)
		if s.capacityAt(p.Collection, y) > 0 {
			ser.collectFoodIntention[y] = s.rampIntention(p.CollectFood, s.rampOffsets[2], y)
			ser.collectGreenIntention[y] = s.rampIntention(p.CollectGreen, s.rampOffsets[3], y)
		}
	}

	ser.compostFoodIntention[y] = clamp01(ser.compostFoodIntention[y])
	ser.compostGreenIntention[y] = clamp01(ser.compostGreenIntention[y])
	ser.collectFoodIntention[y] = clamp01(ser.collectFoodIntention[y])
	ser.collectGreenIntention[y] = clamp01(ser.collectGreenIntention[y])

	// Composting takes priority: the fractions of a waste type routed to
	// the two pathways cannot exceed 1, so collection gives way.
	if sum := ser.compostFoodIntention[y] + ser.collectFoodIntention[y]; sum > 1 {
		ser.collectFoodIntention[y] = 1 - ser.compostFoodIntention[y]
	}
	if sum := ser.compostGreenIntention[y] + ser.collectGreenIntention[y]; sum > 1 {
		ser.collectGreenIntention[y] = 1 - ser.compostGreenIntention[y]
	}
}

// rampIntention follows the S-curve from the baseline toward the ceiling
// when no social dynamics drive the intention.
func (s *Simulator) rampIntention(ip IntentionParams, offset, y int) float64 {
	return ip.Initial + (ip.Max-ip.Initial)*curve.Sigmoid(float64(y+offset), ip.Inflection)
}

func (s *Simulator) capacityAt(cp CapacityParams, y int) float64 {
	return cp.Initial + (cp.Target-cp.Initial)*curve.Linear(float64(y), cp.RampYears)
}

func (s *Simulator) updateCapacities(y int) {
	s.series.compostCapacity[y] = s.capacityAt(s.params.Compost, y)
	s.series.collectionCapacity[y] = s.capacityAt(s.params.Collection, y)
}

func (s *Simulator) allocateCompost(y int) {
	ser := s.series
	demand := flows.Demand{
		Food:  ser.compostFoodIntention[y] * ser.foodProduced[y],
		Green: ser.compostGreenIntention[y] * ser.greenProduced[y],
	}
	ser.intendedCompost[y] = demand.Total()

	alloc, surplus := flows.Allocate(demand, ser.compostCapacity[y])
	ser.compostedFood[y] = alloc.Food
	ser.compostedGreen[y] = alloc.Green
	ser.compostSurplusFood[y] = surplus.Food
	ser.compostSurplusGreen[y] = surplus.Green
}

func (s *Simulator) allocateCollection(y int) {
	ser := s.series
	if ser.collectionCapacity[y] <= 0 {
		// No infrastructure yet: the step is skipped and all its outputs
		// stay at zero. Compost surplus falls through to residual.
		return
	}

	demand := flows.Demand{
		// Food that overflowed home composting is offered to collection.
		Food:  ser.collectFoodIntention[y]*ser.foodProduced[y] + ser.compostSurplusFood[y],
		Green: ser.collectGreenIntention[y] * ser.greenProduced[y],
	}
	ser.intendedCollection[y] = demand.Total()

	alloc, surplus := flows.Allocate(demand, ser.collectionCapacity[y])
	ser.collectedFood[y] = alloc.Food
	ser.collectedGreen[y] = alloc.Green
	ser.collectionSurplusFood[y] = surplus.Food
	ser.collectionSurplusGreen[y] = surplus.Green
}

// computeResidual closes the per-type mass balance: whatever was neither
// composted nor collected ends up in the residual bin (food) or at the
// valorisation centre (green).
func (s *Simulator) computeResidual(y int) {
	ser := s.series
	ser.residualFood[y] = math.Max(0, ser.foodProduced[y]-ser.compostedFood[y]-ser.collectedFood[y])
	ser.valorisedGreen[y] = math.Max(0, ser.greenProduced[y]-ser.compostedGreen[y]-ser.collectedGreen[y])

	foodGap := ser.foodProduced[y] - ser.compostedFood[y] - ser.collectedFood[y] - ser.residualFood[y]
	greenGap := ser.greenProduced[y] - ser.compostedGreen[y] - ser.collectedGreen[y] - ser.valorisedGreen[y]
	if math.Abs(foodGap) > massBalanceTolerance || math.Abs(greenGap) > massBalanceTolerance {
		slog.Warn("mass balance discrepancy",
			"territory", s.params.ID,
			"year", y,
			"food_gap_t", foodGap,
			"green_gap_t", greenGap,
		)
	}
}

func (s *Simulator) computeIndicators(y int) {
	ser := s.series
	if ser.population[y] <= 0 {
		return
	}

	ser.residualPerCapitaKg[y] = ser.residualFood[y] * 1000 / ser.population[y]

	collected := ser.collectedFood[y] + ser.collectedGreen[y]
	if ser.collectionCapacity[y] > 0 && collected > 0 && ser.intendedCollection[y] > 0 {
		ser.collectionCoverage[y] = math.Min(1, ser.collectionCapacity[y]/ser.intendedCollection[y])
		served := ser.population[y] * ser.collectionCoverage[y]
		if served > 0 {
			ser.collectedPerServedKg[y] = collected * 1000 / served
		}
	}

	// Reduction is measured against the year-0 baseline.
	if y > 0 && ser.greenProduced[0] > 0 {
		ser.greenReductionRate[y] = (ser.greenProduced[0] - ser.greenProduced[y]) / ser.greenProduced[0]
	}
}

// distributeToHouseholds divides every year-y flow equally across the agent
// population, so summing household shares reconstructs the territory totals.
func (s *Simulator) distributeToHouseholds(y int) {
	n := float64(len(s.households))
	if n == 0 {
		return
	}
	ser := s.series
	share := agents.FlowShare{
		FoodProduced:   ser.foodProduced[y] / n,
		GreenProduced:  ser.greenProduced[y] / n,
		FoodComposted:  ser.compostedFood[y] / n,
		GreenComposted: ser.compostedGreen[y] / n,
		FoodCollected:  ser.collectedFood[y] / n,
		GreenCollected: ser.collectedGreen[y] / n,
		FoodResidual:   ser.residualFood[y] / n,
		GreenValorised: ser.valorisedGreen[y] / n,
	}
	for _, h := range s.households {
		h.AssignFlows(share)
	}
}
