package vad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeAdjacent_MergesCloseSegments(t *testing.T) {
	segs := []Segment{
		{StartSample: 0, EndSample: 1000, Confidence: 0.8},
		{StartSample: 1100, EndSample: 2000, Confidence: 0.6},
	}
	merged := mergeAdjacent(segs, 200)
	assert.Len(t, merged, 1)
	assert.Equal(t, 0, merged[0].StartSample)
	assert.Equal(t, 2000, merged[0].EndSample)
	assert.InDelta(t, 0.7, merged[0].Confidence, 1e-6)
}

func TestMergeAdjacent_KeepsDistantSegmentsSeparate(t *testing.T) {
	segs := []Segment{
		{StartSample: 0, EndSample: 1000},
		{StartSample: 5000, EndSample: 6000},
	}
	merged := mergeAdjacent(segs, 200)
	assert.Len(t, merged, 2)
}

func TestMergeAdjacent_SingleSegmentUnchanged(t *testing.T) {
	segs := []Segment{{StartSample: 0, EndSample: 500}}
	assert.Equal(t, segs, mergeAdjacent(segs, 200))
}

func TestMeanOrZero(t *testing.T) {
	assert.Equal(t, float32(0), meanOrZero(10, 0))
	assert.InDelta(t, 2.5, meanOrZero(10, 4), 1e-6)
}

func TestSpeechDuration(t *testing.T) {
	segs := []Segment{
		{StartSample: 0, EndSample: 16000},
		{StartSample: 32000, EndSample: 48000},
	}
	assert.InDelta(t, 2.0, SpeechDuration(segs, 16000), 1e-6)
}

func TestSetThreshold_RejectsOutOfRange(t *testing.T) {
	d := &Detector{}
	assert.Error(t, d.SetThreshold(-0.1))
	assert.Error(t, d.SetThreshold(1.1))
	assert.NoError(t, d.SetThreshold(0.7))
	assert.Equal(t, float32(0.7), d.threshold)
}

func TestClearFloat32(t *testing.T) {
	s := []float32{1, 2, 3}
	clearFloat32(s)
	assert.Equal(t, []float32{0, 0, 0}, s)
}
