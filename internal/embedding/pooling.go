package embedding

// MeanPool averages the token vectors of hidden whose mask entry is non-zero.
// hidden is row-major [tokens][dims]. With no unmasked token the result is a zero vector.
func MeanPool(hidden []float32, mask []int64, dims int) []float32 {
	out := make([]float32, dims)
	if dims <= 0 {
		return out
	}
	sums := make([]float64, dims)
	var count float64
	for tok, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[tok*dims : (tok+1)*dims]
		for i, v := range row {
			sums[i] += float64(v)
		}
		count++
	}
	if count == 0 {
		return out
	}
	for i := range out {
		out[i] = float32(sums[i] / count)
	}
	return out
}
