// Package agents provides the household agent data model: adoption
// thresholds, sorting behavior state, and the per-year share of territory
// flows assigned by the owning territory.
package agents

// Behavior identifies a sorting behavior tracked by the diffusion model.
type Behavior uint8

const (
	BehaviorCompost    Behavior = 0 // home composting of biowaste
	BehaviorCollection Behavior = 1 // sorting for dedicated collection
)

// NumBehaviors is the number of tracked behaviors.
const NumBehaviors = 2

// BehaviorName returns a human-readable behavior label.
func BehaviorName(b Behavior) string {
	switch b {
	case BehaviorCompost:
		return "compost"
	case BehaviorCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// AdopterCategory classifies a household by its adoption threshold,
// following the classic diffusion-of-innovations segmentation.
type AdopterCategory uint8

const (
	CategoryEarly      AdopterCategory = iota // θ ≤ 0.3
	CategoryMainstream                        // 0.3 < θ ≤ 0.7
	CategoryLate                              // θ > 0.7
)

// CategoryName returns a human-readable category label.
func CategoryName(c AdopterCategory) string {
	switch c {
	case CategoryEarly:
		return "early"
	case CategoryMainstream:
		return "mainstream"
	default:
		return "late"
	}
}

// CategoryForThreshold maps a threshold to its adopter category.
func CategoryForThreshold(threshold float64) AdopterCategory {
	switch {
	case threshold <= 0.3:
		return CategoryEarly
	case threshold <= 0.7:
		return CategoryMainstream
	default:
		return CategoryLate
	}
}

// FlowShare is one household's slice of the territory-level flows for a
// single year, in tonnes. The territory computes aggregate flows first and
// assigns identical shares to every household, so summing FlowShare over
// all households reconstructs the territory totals exactly.
type FlowShare struct {
	FoodProduced   float64 `json:"food_produced"`
	GreenProduced  float64 `json:"green_produced"`
	FoodComposted  float64 `json:"food_composted"`
	GreenComposted float64 `json:"green_composted"`
	FoodCollected  float64 `json:"food_collected"`
	GreenCollected float64 `json:"green_collected"`
	FoodResidual   float64 `json:"food_residual"`
	GreenValorised float64 `json:"green_valorised"`
}

// Household is a passive agent: the territory is the only writer of its
// flow share, and its adoption flags are set from decisions the diffusion
// engine evaluates against a frozen prior-year snapshot. TerritoryID is a
// non-owning back-reference used for lookups and output only.
type Household struct {
	Index       int     `json:"index"`
	TerritoryID int     `json:"territory_id"`
	Size        float64 `json:"size"` // persons per household

	// Thresholds are drawn once at creation and never change.
	Thresholds [NumBehaviors]float64 `json:"thresholds"`

	// Adopted flags are monotone: once a behavior is adopted it is never
	// reverted within a run.
	Adopted [NumBehaviors]bool `json:"adopted"`

	// Flows is overwritten every simulated year.
	Flows FlowShare `json:"flows"`
}

// Adopt marks the behavior as adopted. Adoption is terminal.
func (h *Household) Adopt(b Behavior) {
	h.Adopted[b] = true
}

// HasAdopted reports whether the household exhibits the behavior.
func (h *Household) HasAdopted(b Behavior) bool {
	return h.Adopted[b]
}

// Category returns the household's adopter category for a behavior.
func (h *Household) Category(b Behavior) AdopterCategory {
	return CategoryForThreshold(h.Thresholds[b])
}

// AssignFlows overwrites the household's flow share for the current year.
func (h *Household) AssignFlows(fs FlowShare) {
	h.Flows = fs
}
