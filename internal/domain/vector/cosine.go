// Package vector holds pure similarity math over embedding vectors.
package vector

import (
	"fmt"
	"math"
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Zero-magnitude input yields 0. Vectors of different length are a programming error and panic.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("vector: cosine of mismatched lengths %d and %d", len(a), len(b)))
	}

	var dot, magA, magB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		magA += x * x
		magB += y * y
	}
	if magA == 0 || magB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	// rounding can push |sim| just past 1
	return math.Max(-1, math.Min(1, sim))
}
