package animation

import (
	"math"
	"time"
)

// EaseInOut is the cubic ease-in-out curve on [0, 1].
func EaseInOut(p float64) float64 {
	switch {
	case p <= 0:
		return 0
	case p >= 1:
		return 1
	case p < 0.5:
		return 4 * p * p * p
	default:
		return 1 - math.Pow(-2*p+2, 3)/2
	}
}

// progress returns the fraction of d elapsed at now, in [0, 1].
func progress(start, now time.Time, d time.Duration) float64 {
	if d <= 0 {
		return 1
	}
	p := float64(now.Sub(start)) / float64(d)
	return math.Max(0, math.Min(1, p))
}

func lerp(a, b, p float64) float64 { return a + (b-a)*p }
