package rag

import "math"

// cosineDistance returns 1 - cosine similarity, clamped to [0, 2]. A zero
// vector is treated as orthogonal to everything.
func cosineDistance(a, b []float64) float64 {
	normA := vectorNorm(a)
	normB := vectorNorm(b)
	if normA == 0 || normB == 0 {
		return 1
	}
	dot := 0.0
	for i := range a {
		dot += a[i] * b[i]
	}
	d := 1 - dot/(normA*normB)
	if d < 0 {
		return 0
	}
	if d > 2 {
		return 2
	}
	return d
}

func vectorNorm(v []float64) float64 {
	sum := 0.0
	for _, val := range v {
		sum += val * val
	}
	return math.Sqrt(sum)
}
