// Package curve provides the bounded growth curves used for infrastructure
// ramp-up and behavioral intention diffusion.
package curve

import "math"

// Sigmoid returns x^5 / (x^5 + inflection^5), an S-shaped value in [0, 1)
// that crosses 0.5 at x == inflection. Negative x is treated as 0. A
// non-positive inflection means the curve is already saturated and yields 1.
func Sigmoid(x, inflection float64) float64 {
	if inflection <= 0 {
		return 1.0
	}
	if x < 0 {
		x = 0
	}
	t := math.Pow(x, 5)
	return t / (t + math.Pow(inflection, 5))
}

// Linear returns min(t/duration, 1), the position on a linear ramp of the
// given duration. A non-positive duration means the ramp is complete.
func Linear(t, duration float64) float64 {
	if duration <= 0 {
		return 1.0
	}
	if t <= 0 {
		return 0.0
	}
	return math.Min(t/duration, 1.0)
}

// TimeToReach returns the smallest integer offset t such that
// Sigmoid(t, inflection) >= value. Intention ramps are phase-shifted by this
// offset so that year 0 of a run starts at the observed baseline intention
// rather than at the foot of the curve.
func TimeToReach(value, inflection float64) int {
	if value <= 0 {
		return 0
	}
	t := 0
	for Sigmoid(float64(t), inflection) < value {
		t++
	}
	return t
}
