package render

import (
	"math"
	"strconv"
)

// Default output size; the height matches the fixed dashboard chart height.
const (
	DefaultWidth  = 1100
	DefaultHeight = 600
	minWidth      = 800
	maxWidth      = 2400
)

// ComputeDimensions clamps a requested width into the readable range and pairs
// it with height (DefaultHeight when height <= 0).
func ComputeDimensions(rawW, height int) (int, int) {
	w := rawW
	if w <= 0 {
		w = DefaultWidth
	}
	if w < minWidth {
		w = minWidth
	}
	if w > maxWidth {
		w = maxWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return w, height
}

// dayTicks returns integer tick positions between min and max using 1/2/5
// multiples, aiming for about n ticks.
func dayTicks(min, max, n int) []float64 {
	if n < 2 {
		n = 2
	}
	if max <= min {
		max = min + 1
	}
	span := float64(max - min)
	raw := span / float64(n-1)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	for _, c := range []float64{1, 2, 5, 10} {
		step = c * mag
		if step >= raw {
			break
		}
	}
	if step < 1 {
		step = 1
	}
	start := math.Ceil(float64(min)/step) * step
	out := []float64{}
	for v := start; v <= float64(max)+step*0.001; v += step {
		out = append(out, v)
	}
	if len(out) == 0 || out[0] != float64(min) {
		out = append([]float64{float64(min)}, out...)
	}
	return out
}

// logTicks returns decade ticks inside [min, max] plus max itself, as log10 positions.
func logTicks(min, max float64) []float64 {
	if min <= 0 || max <= min {
		return nil
	}
	lo, hi := math.Log10(min), math.Log10(max)
	out := []float64{}
	for e := math.Ceil(lo - 1e-9); e <= hi+1e-9; e++ {
		out = append(out, e)
	}
	if len(out) == 0 || math.Abs(out[len(out)-1]-hi) > 1e-9 {
		out = append(out, hi)
	}
	return out
}

// formatCount labels a death count compactly: 10, 100, 1k, 10k, 200k, 1.5M.
func formatCount(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 1_000_000:
		return trimZero(v/1_000_000) + "M"
	case av >= 1000:
		return trimZero(v/1000) + "k"
	default:
		return trimZero(v)
	}
}

func trimZero(v float64) string {
	r := math.Round(v*10) / 10
	if r == math.Trunc(r) {
		return strconv.FormatInt(int64(r), 10)
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}
