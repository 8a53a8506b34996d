package territory

import (
	"math"
	"testing"

	"github.com/greenloop/biocycle/internal/agents"
	"github.com/greenloop/biocycle/internal/diffusion"
)

func baseParams() Params {
	return Params{
		ID:                1,
		InitialPopulation: 10000,
		GrowthRate:        0,
		FoodPerCapita:     0.1,
		GreenPerCapita:    0.15,
		CompostFood:       IntentionParams{Initial: 0.3, Max: 0.3},
		CompostGreen:      IntentionParams{Initial: 0.2, Max: 0.2},
		Compost:           CapacityParams{Initial: 1000, Target: 1000},
		HouseholdSize:     2.1,
		AvgDegree:         5,
	}
}

func baseOptions(horizon int) Options {
	return Options{
		Horizon:       horizon,
		ReferenceYear: 2017,
		Seed:          42,
		PlanIntensity: make([]float64, horizon),
	}
}

func TestScenarioAFixedIntentions(t *testing.T) {
	sim, err := New(baseParams(), baseOptions(5))
	if err != nil {
		t.Fatal(err)
	}
	sim.Run()

	rec := sim.Year(0)
	if math.Abs(rec.FoodProduced-1000) > 1e-9 {
		t.Errorf("food produced = %v, want 1000", rec.FoodProduced)
	}
	if math.Abs(rec.GreenProduced-1500) > 1e-9 {
		t.Errorf("green produced = %v, want 1500", rec.GreenProduced)
	}
	if math.Abs(rec.CompostedFood-300) > 1e-9 {
		t.Errorf("composted food = %v, want 300", rec.CompostedFood)
	}
	if math.Abs(rec.CompostedGreen-300) > 1e-9 {
		t.Errorf("composted green = %v, want 300", rec.CompostedGreen)
	}
	if math.Abs(rec.ResidualFood-700) > 1e-9 {
		t.Errorf("residual food = %v, want 700", rec.ResidualFood)
	}
	if math.Abs(rec.ValorisedGreen-1200) > 1e-9 {
		t.Errorf("valorised green = %v, want 1200", rec.ValorisedGreen)
	}
	if rec.CollectedFood != 0 || rec.CollectedGreen != 0 {
		t.Error("collection flows must stay zero without infrastructure")
	}
	if rec.CalendarYear != 2017 {
		t.Errorf("calendar year = %d, want 2017", rec.CalendarYear)
	}
}

func TestScenarioBZeroCapacityEverythingResidual(t *testing.T) {
	p := baseParams()
	p.Compost = CapacityParams{}
	p.Collection = CapacityParams{}
	sim, err := New(p, baseOptions(3))
	if err != nil {
		t.Fatal(err)
	}
	sim.Run()

	for y := 0; y < 3; y++ {
		rec := sim.Year(y)
		if rec.CompostedFood != 0 || rec.CompostedGreen != 0 ||
			rec.CollectedFood != 0 || rec.CollectedGreen != 0 {
			t.Fatalf("year %d: diverted flows nonzero with zero capacity", y)
		}
		if math.Abs(rec.ResidualFood-rec.FoodProduced) > 1e-9 {
			t.Fatalf("year %d: residual %v != production %v", y, rec.ResidualFood, rec.FoodProduced)
		}
		if math.Abs(rec.ValorisedGreen-rec.GreenProduced) > 1e-9 {
			t.Fatalf("year %d: valorised %v != production %v", y, rec.ValorisedGreen, rec.GreenProduced)
		}
	}
}

func TestScenarioCSingleZeroThresholdAgent(t *testing.T) {
	p := baseParams()
	p.InitialPopulation = 2.1 // exactly one household
	// Force the threshold to 0 through a degenerate segmented band.
	p.Thresholds = agents.ThresholdConfig{Segmented: true, EarlyShare: 1}
	p.CompostFood.Inflection = 10

	opts := baseOptions(3)
	opts.UseSocialDynamics = true
	sim, err := New(p, opts)
	if err != nil {
		t.Fatal(err)
	}

	hh := sim.Households()
	if len(hh) != 1 {
		t.Fatalf("household count = %d, want 1", len(hh))
	}
	hh[0].Thresholds = [agents.NumBehaviors]float64{0, 0}

	sim.Run()
	if !hh[0].HasAdopted(agents.BehaviorCompost) {
		t.Error("zero-threshold agent did not adopt")
	}
	if sim.Year(1).CompostAdoptionRate != 1 {
		t.Errorf("year-1 adoption rate = %v, want 1", sim.Year(1).CompostAdoptionRate)
	}
}

func TestMassBalancePerTypeAcrossCapacities(t *testing.T) {
	none := CapacityParams{}
	tiny := CapacityParams{Initial: 50, Target: 50}
	ramping := CapacityParams{Initial: 400, Target: 900, RampYears: 10}
	unlimited := CapacityParams{Initial: 1e6, Target: 1e6}
	capacities := []CapacityParams{none, tiny, ramping, unlimited}
	for _, compost := range capacities {
		for _, collection := range capacities {
			p := baseParams()
			p.GrowthRate = 0.01
			p.CollectFood = IntentionParams{Initial: 0.25, Max: 0.6, Inflection: 6}
			p.CollectGreen = IntentionParams{Initial: 0.15, Max: 0.5, Inflection: 6}
			p.CompostFood.Max = 0.7
			p.CompostFood.Inflection = 8
			p.CompostGreen.Max = 0.6
			p.CompostGreen.Inflection = 8
			p.Compost = compost
			p.Collection = collection

			sim, err := New(p, baseOptions(25))
			if err != nil {
				t.Fatal(err)
			}
			sim.Run()

			for y := 0; y < 25; y++ {
				rec := sim.Year(y)
				foodGap := rec.FoodProduced - rec.CompostedFood - rec.CollectedFood - rec.ResidualFood
				if math.Abs(foodGap) > 1e-6 {
					t.Fatalf("compost %+v collection %+v year %d: food gap %v t", compost, collection, y, foodGap)
				}
				greenGap := rec.GreenProduced - rec.CompostedGreen - rec.CollectedGreen - rec.ValorisedGreen
				if math.Abs(greenGap) > 1e-6 {
					t.Fatalf("compost %+v collection %+v year %d: green gap %v t", compost, collection, y, greenGap)
				}
			}
		}
	}
}

func TestCompostSurplusFeedsCollection(t *testing.T) {
	p := baseParams()
	// Compost capacity 100 t against 300 t of intended compost food leaves a
	// 200 t food overflow for the amply sized collection service.
	p.Compost = CapacityParams{Initial: 100, Target: 100}
	p.Collection = CapacityParams{Initial: 10000, Target: 10000}
	sim, err := New(p, baseOptions(2))
	if err != nil {
		t.Fatal(err)
	}
	sim.Run()

	rec := sim.Year(0)
	if math.Abs(rec.CompostSurplusFood-200) > 1e-9 {
		t.Fatalf("compost food surplus = %v, want 200", rec.CompostSurplusFood)
	}
	// Collection intention is zero, so its entire food intake is surplus.
	if math.Abs(rec.CollectedFood-200) > 1e-9 {
		t.Errorf("collected food = %v, want the 200 t compost overflow", rec.CollectedFood)
	}
	if math.Abs(rec.ResidualFood-700) > 1e-9 {
		t.Errorf("residual food = %v, want 700", rec.ResidualFood)
	}
}

func TestHouseholdDistributionSumsExactly(t *testing.T) {
	for _, tc := range []struct {
		population    float64
		householdSize float64
		wantCount     int
	}{
		{2.1, 2.1, 1},
		{4.2, 2.1, 2},
		{35.7, 2.1, 17},
		{100, 3, 33}, // ratio does not divide evenly
	} {
		p := baseParams()
		p.InitialPopulation = tc.population
		p.HouseholdSize = tc.householdSize
		p.Collection = CapacityParams{Initial: 5, Target: 5}
		p.CollectFood = IntentionParams{Initial: 0.2, Max: 0.2}

		sim, err := New(p, baseOptions(4))
		if err != nil {
			t.Fatal(err)
		}
		sim.Run()

		hh := sim.Households()
		if len(hh) != tc.wantCount {
			t.Fatalf("population %v size %v: household count %d, want %d",
				tc.population, tc.householdSize, len(hh), tc.wantCount)
		}

		rec := sim.Year(3)
		sums := agents.FlowShare{}
		for _, h := range hh {
			sums.FoodProduced += h.Flows.FoodProduced
			sums.GreenProduced += h.Flows.GreenProduced
			sums.FoodComposted += h.Flows.FoodComposted
			sums.GreenComposted += h.Flows.GreenComposted
			sums.FoodCollected += h.Flows.FoodCollected
			sums.GreenCollected += h.Flows.GreenCollected
			sums.FoodResidual += h.Flows.FoodResidual
			sums.GreenValorised += h.Flows.GreenValorised
		}
		checks := []struct {
			name       string
			got, want float64
		}{
			{"food produced", sums.FoodProduced, rec.FoodProduced},
			{"green produced", sums.GreenProduced, rec.GreenProduced},
			{"food composted", sums.FoodComposted, rec.CompostedFood},
			{"green composted", sums.GreenComposted, rec.CompostedGreen},
			{"food collected", sums.FoodCollected, rec.CollectedFood},
			{"green collected", sums.GreenCollected, rec.CollectedGreen},
			{"food residual", sums.FoodResidual, rec.ResidualFood},
			{"green valorised", sums.GreenValorised, rec.ValorisedGreen},
		}
		for _, c := range checks {
			if math.Abs(c.got-c.want) > 1e-9 {
				t.Errorf("count %d: household sum of %s = %v, territory = %v", len(hh), c.name, c.got, c.want)
			}
		}
	}
}

func TestIntentionSumsStayBelowOne(t *testing.T) {
	p := baseParams()
	p.CompostFood = IntentionParams{Initial: 0.5, Max: 0.9, Inflection: 3}
	p.CollectFood = IntentionParams{Initial: 0.4, Max: 0.9, Inflection: 3}
	p.CompostGreen = IntentionParams{Initial: 0.5, Max: 0.95, Inflection: 3}
	p.CollectGreen = IntentionParams{Initial: 0.3, Max: 0.9, Inflection: 3}
	p.Collection = CapacityParams{Initial: 500, Target: 2000, RampYears: 8}

	sim, err := New(p, baseOptions(20))
	if err != nil {
		t.Fatal(err)
	}
	sim.Run()

	for y := 0; y < 20; y++ {
		rec := sim.Year(y)
		if rec.CompostFoodIntention+rec.CollectFoodIntention > 1+1e-12 {
			t.Fatalf("year %d: food intentions sum to %v", y,
				rec.CompostFoodIntention+rec.CollectFoodIntention)
		}
		if rec.CompostGreenIntention+rec.CollectGreenIntention > 1+1e-12 {
			t.Fatalf("year %d: green intentions sum to %v", y,
				rec.CompostGreenIntention+rec.CollectGreenIntention)
		}
	}
}

func TestSocialDynamicsBothPolicies(t *testing.T) {
	for _, policy := range []diffusion.IntentionPolicy{diffusion.PolicyInterpolate, diffusion.PolicyDirect} {
		p := baseParams()
		p.InitialPopulation = 2100 // 1000 households
		opts := baseOptions(15)
		opts.UseSocialDynamics = true
		opts.Policy = policy

		sim, err := New(p, opts)
		if err != nil {
			t.Fatal(err)
		}
		sim.Run()

		for y := 1; y < 15; y++ {
			rec := sim.Year(y)
			rate := rec.CompostAdoptionRate
			want := diffusion.Intention(policy, p.CompostFood.Initial, rate)
			if want > 1 {
				want = 1
			}
			if math.Abs(rec.CompostFoodIntention-want) > 1e-12 {
				t.Fatalf("policy %v year %d: intention %v, want %v (rate %v)",
					policy, y, rec.CompostFoodIntention, want, rate)
			}
			if rate < sim.Year(y-1).CompostAdoptionRate {
				t.Fatalf("policy %v: adoption rate decreased at year %d", policy, y)
			}
		}
	}
}

func TestRunIdempotence(t *testing.T) {
	run := func() []Record {
		p := baseParams()
		p.InitialPopulation = 4200
		p.GreenSeasonality = 0.1
		opts := baseOptions(12)
		opts.UseSocialDynamics = true
		sim, err := New(p, opts)
		if err != nil {
			t.Fatal(err)
		}
		sim.Run()
		records := make([]Record, 12)
		for y := range records {
			records[y] = sim.Year(y)
		}
		return records
	}

	a, b := run(), run()
	for y := range a {
		if a[y] != b[y] {
			t.Fatalf("year %d differs between identical runs:\n%+v\n%+v", y, a[y], b[y])
		}
	}
}

func TestIndicators(t *testing.T) {
	p := baseParams()
	p.Collection = CapacityParams{Initial: 100, Target: 100}
	p.CollectFood = IntentionParams{Initial: 0.4, Max: 0.4}
	sim, err := New(p, baseOptions(2))
	if err != nil {
		t.Fatal(err)
	}
	sim.Run()

	rec := sim.Year(0)
	// Residual food: 1000 - 300 composted - 100 collected = 600 t over
	// 10000 people = 60 kg/person.
	if math.Abs(rec.ResidualPerCapitaKg-60) > 1e-9 {
		t.Errorf("residual per capita = %v kg, want 60", rec.ResidualPerCapitaKg)
	}
	// Intended collection 400 t against 100 t capacity: 25% coverage.
	if math.Abs(rec.CollectionCoverage-0.25) > 1e-9 {
		t.Errorf("coverage = %v, want 0.25", rec.CollectionCoverage)
	}
	// 100 t over 2500 served inhabitants = 40 kg each.
	if math.Abs(rec.CollectedPerServedKg-40) > 1e-9 {
		t.Errorf("collected per served = %v kg, want 40", rec.CollectedPerServedKg)
	}
}

func TestGreenReductionAgainstBaseline(t *testing.T) {
	p := baseParams()
	p.PlanEffectGreen = 0.5
	opts := baseOptions(3)
	// Plan fully active from year 1 halves nothing at year 0.
	opts.PlanIntensity = []float64{0, 1, 1}
	sim, err := New(p, opts)
	if err != nil {
		t.Fatal(err)
	}
	sim.Run()

	if got := sim.Year(0).GreenReductionRate; got != 0 {
		t.Errorf("year-0 reduction = %v, want 0", got)
	}
	// Production drops from 1500 to 750: 50% reduction vs year 0.
	if got := sim.Year(2).GreenReductionRate; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("year-2 reduction = %v, want 0.5", got)
	}
}

func TestValidationErrors(t *testing.T) {
	p := baseParams()
	p.HouseholdSize = 0
	if _, err := New(p, baseOptions(5)); err == nil {
		t.Error("zero household size should fail fast")
	}

	opts := baseOptions(5)
	opts.PlanIntensity = opts.PlanIntensity[:2]
	if _, err := New(baseParams(), opts); err == nil {
		t.Error("short plan-intensity series should fail fast")
	}

	opts = baseOptions(5)
	opts.Horizon = 0
	if _, err := New(baseParams(), opts); err == nil {
		t.Error("zero horizon should fail fast")
	}
}

func TestOutOfRangeInputsAreClamped(t *testing.T) {
	p := baseParams()
	p.CompostFood = IntentionParams{Initial: 1.7, Max: 2.5}
	p.Compost = CapacityParams{Initial: -100, Target: -100}
	sim, err := New(p, baseOptions(2))
	if err != nil {
		t.Fatal(err)
	}
	sim.Run()

	rec := sim.Year(0)
	if rec.CompostFoodIntention != 1 {
		t.Errorf("intention = %v, want clamped to 1", rec.CompostFoodIntention)
	}
	if rec.CompostCapacity != 0 {
		t.Errorf("capacity = %v, want clamped to 0", rec.CompostCapacity)
	}
	if rec.CompostedFood != 0 {
		t.Errorf("composted = %v, want 0 with clamped capacity", rec.CompostedFood)
	}
}
