package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func toneAt(amplitude float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = amplitude * float32(math.Sin(2*math.Pi*200*float64(i)/16000))
	}
	return out
}

func TestComputeLUFS_SilenceHitsAbsoluteGate(t *testing.T) {
	silence := make([]float32, 16000)
	assert.Equal(t, float32(-70.0), ComputeLUFS(silence, 16000))
}

func TestComputeLUFS_EmptyInput(t *testing.T) {
	assert.Equal(t, float32(-70.0), ComputeLUFS(nil, 16000))
}

func TestComputeLUFS_LouderSignalScoresHigher(t *testing.T) {
	quiet := ComputeLUFS(toneAt(0.05, 32000), 16000)
	loud := ComputeLUFS(toneAt(0.5, 32000), 16000)
	assert.Greater(t, loud, quiet)
}

func TestComputeSNRdB_IdenticalBuffersIsZero(t *testing.T) {
	buf := toneAt(0.3, 1600)
	assert.InDelta(t, 0.0, ComputeSNRdB(buf, buf), 1e-3)
}

func TestComputeSNRdB_LouderSpeechIsHigherSNR(t *testing.T) {
	noise := toneAt(0.01, 1600)
	speech := toneAt(0.5, 1600)
	assert.Greater(t, ComputeSNRdB(speech, noise), float32(0))
}

func TestComputeHNRdB_OutOfRangePitchFallsBack(t *testing.T) {
	buf := toneAt(0.3, 1600)
	assert.Equal(t, float32(15.0), ComputeHNRdB(buf, 700, 16000))
	assert.Equal(t, float32(15.0), ComputeHNRdB(buf, 30, 16000))
}

func TestComputeRMS_Silence(t *testing.T) {
	assert.Equal(t, float32(0), ComputeRMS(make([]float32, 100)))
}

func TestComputeClarity_EmptyFallsBackToHalf(t *testing.T) {
	assert.Equal(t, float32(0.5), ComputeClarity(nil, 0, 0))
}

func TestComputeBreathiness_TooFewBinsFallsBack(t *testing.T) {
	assert.Equal(t, float32(0.3), ComputeBreathiness(nil, 10, 0))
}

func TestComputeResonanceScore_TooFewBinsFallsBack(t *testing.T) {
	assert.Equal(t, float32(0.4), ComputeResonanceScore(nil, 10, 0))
}
