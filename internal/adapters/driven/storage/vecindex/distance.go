package vecindex

import (
	"fmt"
	"math"
)

// CosineDistance returns 1 - cosine similarity, in [0, 2]. A zero-magnitude
// vector is treated as orthogonal to everything and yields 1.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vecindex: dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vecindex: empty vectors")
	}
	na, nb := magnitude(a), magnitude(b)
	if na == 0 || nb == 0 {
		return 1, nil
	}
	sim := dot(a, b) / (na * nb)
	// Clamp rounding noise so identical vectors report exactly zero.
	sim = math.Max(-1, math.Min(1, sim))
	return 1 - sim, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func magnitude(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
