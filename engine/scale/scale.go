package scale

import (
	"math"

	"golang.org/x/exp/constraints"
)

// MaxPercent is the upper end of the percentage-like level domain.
const MaxPercent = 100

// Clamp limits t to the interval [lo,hi]. The bounds may be given in either order.
func Clamp[T constraints.Ordered](t, lo, hi T) T {
	if lo > hi {
		lo, hi = hi, lo
	}
	if t < lo {
		return lo
	}
	if t > hi {
		return hi
	}
	return t
}

// ToUnitClamp returns a function that scales a number from the interval [rMin,rMax]
// to the unit interval ([0,1]), if the result falls outside [0,1], it is clamped
// to 0 or 1.
func ToUnitClamp(rMin, rMax float64) func(m float64) float64 {
	return func(m float64) float64 {
		if rMax == rMin {
			return 0
		}
		return Clamp((m-rMin)/(rMax-rMin), 0, 1)
	}
}

// Duty maps a percentage-like level onto the duty cycle range [0,maxDuty].
// The sign of percent is ignored, which lets callers express an inverted
// output as percent-100. Levels beyond 100 saturate at maxDuty.
func Duty(percent, maxDuty int) int {
	if percent < 0 {
		percent = -percent
	}
	percent = Clamp(percent, 0, MaxPercent)
	return int(math.Round(float64(percent) / MaxPercent * float64(maxDuty)))
}
