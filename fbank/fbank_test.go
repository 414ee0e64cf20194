package fbank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumFrames_TooShortReturnsZero(t *testing.T) {
	e := NewExtractor(Default())
	assert.Equal(t, 0, e.NumFrames(100))
}

func TestNumFrames_ExactWindow(t *testing.T) {
	e := NewExtractor(Default())
	frameLen := int(25.0 * 16000 / 1000)
	assert.Equal(t, 1, e.NumFrames(frameLen))
}

func TestExtract_ProducesExpectedShape(t *testing.T) {
	e := NewExtractor(Default())
	n := 16000 // 1 second
	audio := make([]float32, n)
	for i := range audio {
		audio[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 16000))
	}

	m := e.Extract(audio)
	assert.Equal(t, 80, m.Bins)
	assert.Equal(t, e.NumFrames(n), m.Frames)
	assert.Len(t, m.Data, m.Frames*m.Bins)
}

func TestExtract_EmptyAudioReturnsZeroFrames(t *testing.T) {
	e := NewExtractor(Default())
	m := e.Extract(nil)
	assert.Equal(t, 0, m.Frames)
}

func TestApplyCMVN_ZeroMeansEachBin(t *testing.T) {
	e := NewExtractor(Default())
	n := 16000
	audio := make([]float32, n)
	for i := range audio {
		audio[i] = float32(math.Sin(2 * math.Pi * 300 * float64(i) / 16000))
	}
	m := e.Extract(audio)

	for b := 0; b < m.Bins; b++ {
		var mean float64
		for f := 0; f < m.Frames; f++ {
			mean += float64(m.Data[f*m.Bins+b])
		}
		mean /= float64(m.Frames)
		assert.InDelta(t, 0.0, mean, 1e-3)
	}
}

func TestHzMelRoundTrip(t *testing.T) {
	for _, hz := range []float32{100, 440, 1000, 4000} {
		mel := hzToMel(hz)
		back := melToHz(mel)
		assert.InDelta(t, float64(hz), float64(back), 0.5)
	}
}
