// Package diffusion drives the threshold-cascade adoption model: each year
// every household compares a social-norm signal against its personal
// threshold and adopts the behavior once the signal reaches it.
package diffusion

import (
	"github.com/greenloop/biocycle/internal/agents"
	"github.com/greenloop/biocycle/internal/network"
)

// SignalSource selects how the social-norm signal is computed.
type SignalSource uint8

const (
	// SignalPeers uses the fraction of a household's out-neighbors that had
	// adopted by the end of the previous year. Isolated households see 0.
	SignalPeers SignalSource = iota
	// SignalTerritoryRate is the mean-field simplification: every household
	// sees the territory-wide adoption rate of the previous year.
	SignalTerritoryRate
)

// IntentionPolicy selects how a measured adoption rate feeds back into the
// population-level behavioral intention.
type IntentionPolicy uint8

const (
	// PolicyInterpolate keeps the baseline intention when nobody adopts and
	// drives it to 1 under full adoption: α(y) = α0 + (1-α0)·rate.
	PolicyInterpolate IntentionPolicy = iota
	// PolicyDirect sets the intention equal to the adoption rate.
	PolicyDirect
)

// Engine performs synchronous adoption updates over a fixed peer network.
// The households slice is shared with the owning territory; the engine only
// ever sets adoption flags, and only from a frozen prior-year snapshot.
type Engine struct {
	graph      *network.Graph
	households []*agents.Household
	source     SignalSource
}

// NewEngine creates a diffusion engine over the given network and agents.
func NewEngine(graph *network.Graph, households []*agents.Household, source SignalSource) *Engine {
	return &Engine{graph: graph, households: households, source: source}
}

// Step runs one synchronous update of behavior b. Every household's signal
// is computed from the snapshot of last year's joint state before any new
// state is committed, so results do not depend on iteration order. Returns
// the adoption rate after the update. With no households the update is
// skipped and the rate is 0.
func (e *Engine) Step(b agents.Behavior) float64 {
	n := len(e.households)
	if n == 0 {
		return 0
	}

	// Frozen prior-year snapshot.
	snapshot := make([]bool, n)
	adoptedBefore := 0
	for i, h := range e.households {
		snapshot[i] = h.HasAdopted(b)
		if snapshot[i] {
			adoptedBefore++
		}
	}
	priorRate := float64(adoptedBefore) / float64(n)

	// Decide from the snapshot into a second buffer, then commit.
	decisions := make([]bool, n)
	for i, h := range e.households {
		if snapshot[i] {
			decisions[i] = true // adoption is terminal
			continue
		}
		decisions[i] = e.signal(i, snapshot, priorRate) >= h.Thresholds[b]
	}
	for i, h := range e.households {
		if decisions[i] {
			h.Adopt(b)
		}
	}
	return e.AdoptionRate(b)
}

// signal computes the social norm seen by household i from the prior-year
// snapshot.
func (e *Engine) signal(i int, snapshot []bool, priorRate float64) float64 {
	if e.source == SignalTerritoryRate {
		return priorRate
	}
	neighbors := e.graph.Neighbors(i)
	if len(neighbors) == 0 {
		return 0
	}
	adopted := 0
	for _, j := range neighbors {
		if snapshot[j] {
			adopted++
		}
	}
	return float64(adopted) / float64(len(neighbors))
}

// AdoptionRate returns the current fraction of households exhibiting the
// behavior, or 0 for an empty population.
func (e *Engine) AdoptionRate(b agents.Behavior) float64 {
	if len(e.households) == 0 {
		return 0
	}
	adopted := 0
	for _, h := range e.households {
		if h.HasAdopted(b) {
			adopted++
		}
	}
	return float64(adopted) / float64(len(e.households))
}

// Intention derives the population-level behavioral intention for a pathway
// from its baseline value and the measured adoption rate.
func Intention(policy IntentionPolicy, initial, rate float64) float64 {
	switch policy {
	case PolicyDirect:
		return rate
	default:
		return initial + (1-initial)*rate
	}
}
