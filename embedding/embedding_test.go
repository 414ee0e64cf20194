package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestL2Normalize_ScalesToUnitNorm(t *testing.T) {
	v := []float32{3, 4}
	L2Normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
}

func TestL2Normalize_NearZeroVectorLeftUnchanged(t *testing.T) {
	v := []float32{0, 0, 0}
	L2Normalize(v)
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestL2Normalize_EmptyVector(t *testing.T) {
	v := []float32{}
	assert.NotPanics(t, func() { L2Normalize(v) })
}
