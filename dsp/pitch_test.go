package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// sineWave synthesizes a pure tone at freqHz for durationSec seconds at
// sampleRate, used to exercise the YIN pitch tracker against a known
// ground truth.
func sineWave(freqHz float64, durationSec float64, sampleRate int) []float32 {
	n := int(durationSec * float64(sampleRate))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freqHz * float64(i) / float64(sampleRate)))
	}
	return out
}

func TestPitchAnalyzer_TracksKnownFrequency(t *testing.T) {
	pcm := sineWave(150.0, 0.5, 16000)
	analyzer := DefaultPitchAnalyzer()
	frames := analyzer.Analyze(pcm)
	assert.NotEmpty(t, frames)

	summary := Summarize(frames)
	assert.Greater(t, summary.VoicedFraction, float32(0.5))
	assert.InDelta(t, 150.0, summary.MeanF0Hz, 8.0)
}

func TestSummarize_EmptyFrames(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, PitchSummary{}, s)
}

func TestSummarize_AllUnvoiced(t *testing.T) {
	frames := []PitchFrame{{}, {}, {}}
	s := Summarize(frames)
	assert.Equal(t, float32(0), s.VoicedFraction)
}

func TestEstimateSpeakingRate_SilenceIsZero(t *testing.T) {
	silence := make([]float32, 16000)
	rate := EstimateSpeakingRate(silence, 16000)
	assert.Equal(t, float32(0), rate)
}

func TestVoiceStability_StableToneScoresHigh(t *testing.T) {
	pcm := sineWave(150.0, 0.5, 16000)
	analyzer := DefaultPitchAnalyzer()
	frames := analyzer.Analyze(pcm)

	stability := VoiceStability(frames, pcm, 16000)
	assert.Greater(t, stability, float32(0.5))
}
