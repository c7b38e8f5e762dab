// Package sanitize centralizes the numeric guards applied to derived game
// values. Every rate that leaves the stat engine passes through here so a
// bad multiplier can never propagate NaN or negative intervals into the
// scheduler.
package sanitize

import "math"

// Num returns fallback when v is NaN or ±Inf, otherwise v.
func Num(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// NonNeg clamps v to be finite and >= 0.
func NonNeg(v, fallback float64) float64 {
	v = Num(v, fallback)
	if v < 0 {
		return 0
	}
	return v
}

// Interval clamps v to be finite and at least min. Intervals of zero or
// below would make a schedule fire every tick forever.
func Interval(v, min float64) float64 {
	v = Num(v, min)
	if v < min {
		return min
	}
	return v
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	v = Num(v, lo)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
