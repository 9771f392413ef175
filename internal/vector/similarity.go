// Package vector provides similarity helpers for embedding vectors.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch reports vectors produced by incompatible embedding configurations.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// DimensionMismatchError carries the two offending lengths.
type DimensionMismatchError struct {
	A, B int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %d != %d", ErrDimensionMismatch, e.A, e.B)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
// It returns 0 when lengths differ or the vectors are empty.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|) in [-1, 1]. Norms are recomputed, so inputs need
// not be normalized. If either vector has zero norm the result is 0.
//
// Vectors of different length come from different embedding configurations; that is a programming
// error and CosineSimilarity panics with a *DimensionMismatchError.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		panic(&DimensionMismatchError{A: len(a), B: len(b)})
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// rounding can push identical vectors a hair past 1
	return math.Max(-1, math.Min(1, sim))
}
