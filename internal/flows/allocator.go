// Package flows implements capacity-constrained allocation of biowaste
// across disposal pathways. Food waste has strict priority over green waste
// in every pathway.
package flows

import "math"

// Demand is the intended mass per waste type for one pathway, in tonnes.
type Demand struct {
	Food  float64
	Green float64
}

// Total returns the summed demand across both waste types.
func (d Demand) Total() float64 {
	return d.Food + d.Green
}

// Allocation is the mass actually accepted by a pathway, in tonnes.
type Allocation struct {
	Food  float64
	Green float64
}

// Total returns the summed allocation across both waste types.
func (a Allocation) Total() float64 {
	return a.Food + a.Green
}

// Surplus is demand the pathway could not absorb. Food is the food-only
// overflow, forwarded to the next pathway in priority order. Green is the
// total cross-type overflow (food + green beyond capacity), which is what
// the valorisation stream receives.
type Surplus struct {
	Food  float64
	Green float64
}

// Allocate fills a pathway of the given capacity from the demand, food
// first. A non-positive capacity accepts nothing and turns all demand into
// surplus.
func Allocate(demand Demand, capacity float64) (Allocation, Surplus) {
	if capacity <= 0 {
		return Allocation{}, Surplus{
			Food:  math.Max(demand.Food, 0),
			Green: math.Max(demand.Total(), 0),
		}
	}

	var alloc Allocation
	alloc.Food = math.Min(capacity, demand.Food)
	remaining := math.Max(0, capacity-alloc.Food)
	alloc.Green = math.Min(remaining, demand.Green)

	surplus := Surplus{
		Food:  math.Max(0, demand.Food-capacity),
		Green: math.Max(0, demand.Total()-capacity),
	}
	return alloc, surplus
}
