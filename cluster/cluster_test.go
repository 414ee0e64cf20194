package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func unit(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := float32(1)
	if sum > 0 {
		norm = float32(math.Sqrt(sum))
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func TestCosineDist_IdenticalIsZero(t *testing.T) {
	v := unit([]float32{1, 2, 3})
	assert.InDelta(t, 0.0, CosineDist(v, v), 1e-5)
}

func TestCosineDist_MismatchedLengthIsMaximal(t *testing.T) {
	assert.Equal(t, float32(1.0), CosineDist([]float32{1}, []float32{1, 2}))
}

func TestAgglomerative_SingleInput(t *testing.T) {
	embeddings := [][]float32{unit([]float32{1, 0, 0})}
	r := Agglomerative(embeddings, DefaultThreshold, 0)
	assert.Equal(t, 1, r.NumClusters)
	assert.Equal(t, []int{0}, r.Labels)
}

func TestAgglomerative_MergesNearDuplicates(t *testing.T) {
	a := unit([]float32{1, 0, 0})
	aClose := unit([]float32{0.98, 0.02, 0})
	b := unit([]float32{0, 1, 0})

	r := Agglomerative([][]float32{a, aClose, b}, DefaultThreshold, 0)
	assert.Equal(t, 2, r.NumClusters)
	assert.Equal(t, r.Labels[0], r.Labels[1])
	assert.NotEqual(t, r.Labels[0], r.Labels[2])
	assert.Len(t, r.Centroids, 2)
}

func TestAgglomerative_RespectsMaxClusters(t *testing.T) {
	a := unit([]float32{1, 0, 0})
	b := unit([]float32{0, 1, 0})
	c := unit([]float32{0, 0, 1})

	r := Agglomerative([][]float32{a, b, c}, 0.01, 2)
	assert.Equal(t, 2, r.NumClusters)
}

func TestAgglomerative_CentroidsAreUnitNorm(t *testing.T) {
	a := unit([]float32{1, 0})
	aClose := unit([]float32{0.95, 0.05})
	r := Agglomerative([][]float32{a, aClose}, DefaultThreshold, 0)

	for _, c := range r.Centroids {
		var sum float64
		for _, v := range c {
			sum += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, sum, 1e-3)
	}
}
