package territory

// series holds every year-indexed trajectory of a territory run. Slices are
// allocated once for the full horizon at setup and each entry is written
// exactly once, in strictly increasing year order, by the simulator. Values
// are exposed through Record accessors only.
type series struct {
	population []float64

	planIntensity []float64
	foodProduced  []float64
	greenProduced []float64

	compostFoodIntention  []float64
	compostGreenIntention []float64
	collectFoodIntention  []float64
	collectGreenIntention []float64

	compostCapacity    []float64
	collectionCapacity []float64

	intendedCompost    []float64
	intendedCollection []float64

	compostedFood  []float64
	compostedGreen []float64
	collectedFood  []float64
	collectedGreen []float64

	compostSurplusFood     []float64
	compostSurplusGreen    []float64
	collectionSurplusFood  []float64
	collectionSurplusGreen []float64

	residualFood   []float64
	valorisedGreen []float64

	residualPerCapitaKg  []float64
	collectionCoverage   []float64
	collectedPerServedKg []float64
	greenReductionRate   []float64

	compostAdoptionRate    []float64
	collectionAdoptionRate []float64
}

func newSeries(horizon int) *series {
	s := &series{}
	for _, slot := range []*[]float64{
		&s.population, &s.planIntensity, &s.foodProduced, &s.greenProduced,
		&s.compostFoodIntention, &s.compostGreenIntention,
		&s.collectFoodIntention, &s.collectGreenIntention,
		&s.compostCapacity, &s.collectionCapacity,
		&s.intendedCompost, &s.intendedCollection,
		&s.compostedFood, &s.compostedGreen, &s.collectedFood, &s.collectedGreen,
		&s.compostSurplusFood, &s.compostSurplusGreen,
		&s.collectionSurplusFood, &s.collectionSurplusGreen,
		&s.residualFood, &s.valorisedGreen,
		&s.residualPerCapitaKg, &s.collectionCoverage,
		&s.collectedPerServedKg, &s.greenReductionRate,
		&s.compostAdoptionRate, &s.collectionAdoptionRate,
	} {
		*slot = make([]float64, horizon)
	}
	return s
}

// Record is the read-only view of one territory year, named for the output
// layer. Masses are tonnes, per-capita indicators kilograms.
type Record struct {
	Year          int
	CalendarYear  int
	TerritoryID   int
	Population    float64
	PlanIntensity float64

	FoodProduced  float64
	GreenProduced float64

	CompostFoodIntention  float64
	CompostGreenIntention float64
	CollectFoodIntention  float64
	CollectGreenIntention float64

	CompostCapacity    float64
	CollectionCapacity float64

	IntendedCompost    float64
	IntendedCollection float64

	CompostedFood  float64
	CompostedGreen float64
	CollectedFood  float64
	CollectedGreen float64

	CompostSurplusFood     float64
	CompostSurplusGreen    float64
	CollectionSurplusFood  float64
	CollectionSurplusGreen float64

	ResidualFood   float64
	ValorisedGreen float64

	ResidualPerCapitaKg  float64
	CollectionCoverage   float64
	CollectedPerServedKg float64
	GreenReductionRate   float64

	CompostAdoptionRate    float64
	CollectionAdoptionRate float64
}

func (s *series) record(y int) Record {
	return Record{
		Year:          y,
		Population:    s.population[y],
		PlanIntensity: s.planIntensity[y],

		FoodProduced:  s.foodProduced[y],
		GreenProduced: s.greenProduced[y],

		CompostFoodIntention:  s.compostFoodIntention[y],
		CompostGreenIntention: s.compostGreenIntention[y],
		CollectFoodIntention:  s.collectFoodIntention[y],
		CollectGreenIntention: s.collectGreenIntention[y],

		CompostCapacity:    s.compostCapacity[y],
		CollectionCapacity: s.collectionCapacity[y],

		IntendedCompost:    s.intendedCompost[y],
		IntendedCollection: s.intendedCollection[y],

		CompostedFood:  s.compostedFood[y],
		CompostedGreen: s.compostedGreen[y],
		CollectedFood:  s.collectedFood[y],
		CollectedGreen: s.collectedGreen[y],

		CompostSurplusFood:     s.compostSurplusFood[y],
		CompostSurplusGreen:    s.compostSurplusGreen[y],
		CollectionSurplusFood:  s.collectionSurplusFood[y],
		CollectionSurplusGreen: s.collectionSurplusGreen[y],

		ResidualFood:   s.residualFood[y],
		ValorisedGreen: s.valorisedGreen[y],

		ResidualPerCapitaKg:  s.residualPerCapitaKg[y],
		CollectionCoverage:   s.collectionCoverage[y],
		CollectedPerServedKg: s.collectedPerServedKg[y],
		GreenReductionRate:   s.greenReductionRate[y],

		CompostAdoptionRate:    s.compostAdoptionRate[y],
		CollectionAdoptionRate: s.collectionAdoptionRate[y],
	}
}
