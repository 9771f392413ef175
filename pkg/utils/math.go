package utils

import "math"

// NormalizeL2 scales x in place to unit L2 norm and returns the original norm.
// A zero vector is left unchanged and 0 is returned.
func NormalizeL2(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return 0
	}
	norm := math.Sqrt(sum)
	for i := range x {
		x[i] = float32(float64(x[i]) / norm)
	}
	return norm
}

// NormalizedCopy returns a unit-norm copy of x. x is not modified.
func NormalizedCopy(x []float32) []float32 {
	out := make([]float32, len(x))
	copy(out, x)
	NormalizeL2(out)
	return out
}
