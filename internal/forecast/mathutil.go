package forecast

import (
	"math"
	"sort"
)

const epsilon = 1e-9

func safeDiv(num, den float64) float64 {
	if math.Abs(den) < epsilon {
		if den < 0 {
			den = -epsilon
		} else {
			den = epsilon
		}
	}
	return num / den
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// lerp01 scores x linearly between floor (0) and ref (1), clipped to [0,1]
func lerp01(x, floor, ref float64) float64 {
	return clamp(safeDiv(x-floor, ref-floor), 0, 1)
}

// ShrinkFactor returns n/(n+k)
func ShrinkFactor(n int, k float64) float64 {
	k = math.Max(k, 1e-6)
	return float64(n) / (float64(n) + k)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// decayedMean weights the k-th value (newest first) by decay^k
func decayedMean(values []float64, decay float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var num, den float64
	w := 1.0
	for _, v := range values {
		num += v * w
		den += w
		w *= decay
	}
	if den <= 0 {
		return mean(values)
	}
	return num / den
}

// populationStd is the standard deviation with an n denominator
func populationStd(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
