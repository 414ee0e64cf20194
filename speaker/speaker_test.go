package speaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncrementalMean_FirstUpdateAveragesEqually(t *testing.T) {
	old := []float32{1, 1, 1}
	next := []float32{3, 3, 3}
	got := incrementalMean(old, next, 1)
	for _, v := range got {
		assert.InDelta(t, 2.0, v, 1e-6)
	}
}

func TestIncrementalMean_ManyPriorSamplesDampensNewOne(t *testing.T) {
	old := []float32{10}
	next := []float32{0}
	got := incrementalMean(old, next, 9)
	assert.InDelta(t, 9.0, got[0], 1e-6)
}

func TestIncrementalMean_ShorterNewVectorTreatedAsZero(t *testing.T) {
	old := []float32{4, 4}
	next := []float32{8}
	got := incrementalMean(old, next, 1)
	assert.InDelta(t, 6.0, got[0], 1e-6)
	assert.InDelta(t, 2.0, got[1], 1e-6)
}
