package vector

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine_Identical(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
}

func TestCosine_Opposite(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}
	assert.InDelta(t, -1.0, Cosine(a, b), 1e-9)
}

func TestCosine_Orthogonal(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-12)
}

func TestCosine_ZeroVector(t *testing.T) {
	zero := []float32{0, 0, 0}
	v := []float32{1, 2, 3}

	assert.Equal(t, 0.0, Cosine(zero, v))
	assert.Equal(t, 0.0, Cosine(v, zero))
	assert.Equal(t, 0.0, Cosine(zero, zero))
}

func TestCosine_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Cosine(nil, nil))
}

func TestCosine_ScaleInvariant(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{10, 20, 30}
	assert.InDelta(t, 1.0, Cosine(a, b), 1e-9)
}

func TestCosine_MismatchedLengthsPanics(t *testing.T) {
	assert.Panics(t, func() {
		Cosine([]float32{1, 2}, []float32{1, 2, 3})
	})
}

func TestCosine_RangeRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(64)
		a := make([]float32, n)
		b := make([]float32, n)
		for j := range a {
			a[j] = float32(rng.NormFloat64() * 100)
			b[j] = float32(rng.NormFloat64() * 100)
		}
		s := Cosine(a, b)
		if math.IsNaN(s) || s < -1 || s > 1 {
			t.Fatalf("cosine out of range: %v", s)
		}
	}
}
