// Household spawning — creates the initial agent population with
// heterogeneous adoption thresholds.
package agents

import "math/rand"

// ThresholdConfig controls how adoption thresholds are drawn.
//
// With Segmented false, every threshold is uniform over [0, 1]. With
// Segmented true, the population is split into early (θ in [0, 0.3]),
// mainstream ((0.3, 0.7]) and late ((0.7, 1]) adopters by the configured
// shares, and thresholds are uniform within each band.
type ThresholdConfig struct {
	Segmented       bool
	EarlyShare      float64 // fraction of households in the early band
	MainstreamShare float64 // fraction in the mainstream band; rest are late
}

// Spawner creates household agents for a territory.
type Spawner struct {
	rng *rand.Rand
	cfg ThresholdConfig
}

// NewSpawner creates a spawner drawing from its own seeded stream so that
// household creation is reproducible independently of network construction.
func NewSpawner(seed int64, cfg ThresholdConfig) *Spawner {
	return &Spawner{
		rng: rand.New(rand.NewSource(seed + 300)),
		cfg: cfg,
	}
}

// SpawnPopulation creates count households for the given territory. With a
// segmented config the first earlyShare·count households draw from the early
// band, the next mainstreamShare·count from the mainstream band, and the
// remainder from the late band.
func (s *Spawner) SpawnPopulation(count int, territoryID int, size float64) []*Household {
	households := make([]*Household, 0, max(count, 0))

	numEarly := int(float64(count) * s.cfg.EarlyShare)
	numMainstream := int(float64(count) * s.cfg.MainstreamShare)

	for i := 0; i < count; i++ {
		h := &Household{
			Index:       i,
			TerritoryID: territoryID,
			Size:        size,
		}
		for b := 0; b < NumBehaviors; b++ {
			if s.cfg.Segmented {
				switch {
				case i < numEarly:
					h.Thresholds[b] = s.sample(0.0, 0.3)
				case i < numEarly+numMainstream:
					h.Thresholds[b] = s.sample(0.3, 0.7)
				default:
					h.Thresholds[b] = s.sample(0.7, 1.0)
				}
			} else {
				h.Thresholds[b] = s.rng.Float64()
			}
		}
		households = append(households, h)
	}
	return households
}

func (s *Spawner) sample(min, max float64) float64 {
	return min + s.rng.Float64()*(max-min)
}
