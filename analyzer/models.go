package analyzer

import (
	"fmt"

	"github.com/aurakit/voiceprint-go/fbank"
	"github.com/aurakit/voiceprint-go/result"
)

// analyzeGenderAge runs the combined gender/age model over frames: the
// first three output logits softmax into {female, male, child}, the next
// four into {child, teen, adult, elder}, and an eighth output (when
// present) is a direct age-in-years regression; otherwise the age years
// estimate falls back to the winning group's midpoint.
func (a *Analyzer) analyzeGenderAge(frames fbank.Matrix) (result.GenderResult, result.AgeResult, error) {
	shape := []int64{1, int64(frames.Frames), int64(frames.Bins)}
	out, err := a.genderAge.Run(frames.Data, shape)
	if err != nil {
		return result.GenderResult{}, result.AgeResult{}, fmt.Errorf("analyzer: gender/age inference: %w", err)
	}
	if len(out) < 7 {
		return result.GenderResult{}, result.AgeResult{}, fmt.Errorf("analyzer: gender/age model returned %d outputs, want >=7", len(out))
	}

	genderLogits := append([]float32{}, out[0:3]...)
	softmax(genderLogits)
	gender := result.GenderResult{
		Gender: argmax(genderLogits),
		Scores: [3]float32{genderLogits[0], genderLogits[1], genderLogits[2]},
	}

	ageLogits := append([]float32{}, out[3:7]...)
	softmax(ageLogits)
	group := result.AgeGroup(argmax(ageLogits))
	age := result.AgeResult{
		AgeGroup:    group,
		GroupScores: [4]float32{ageLogits[0], ageLogits[1], ageLogits[2], ageLogits[3]},
		Confidence:  ageLogits[argmax(ageLogits)],
	}
	if len(out) > 7 {
		years := int(out[7] + 0.5)
		if years < 0 {
			years = 0
		}
		if years > 100 {
			years = 100
		}
		age.AgeYears = years
	} else {
		age.AgeYears = result.AgeGroupMidpoint(group)
	}

	return gender, age, nil
}

// valenceFallback/arousalFallback back-fill emotion valence/arousal when
// the loaded model has no dedicated regression outputs for them.
var valenceFallback = [result.EmotionCount]float32{0, 0.8, -0.7, -0.8, -0.7, -0.5, 0.3, 0.2}
var arousalFallback = [result.EmotionCount]float32{0, 0.7, -0.4, 0.9, 0.8, 0.1, 0.9, -0.3}

// analyzeEmotion runs the emotion model: eight class logits softmax into
// the discrete emotion distribution, with optional ninth/tenth outputs as
// tanh-scaled valence/arousal falling back to the per-class lookup tables
// above when absent.
func (a *Analyzer) analyzeEmotion(frames fbank.Matrix) (result.EmotionResult, error) {
	shape := []int64{1, int64(frames.Frames), int64(frames.Bins)}
	out, err := a.emotion.Run(frames.Data, shape)
	if err != nil {
		return result.EmotionResult{}, fmt.Errorf("analyzer: emotion inference: %w", err)
	}
	if len(out) < result.EmotionCount {
		return result.EmotionResult{}, fmt.Errorf("analyzer: emotion model returned %d outputs, want >=%d", len(out), result.EmotionCount)
	}

	logits := append([]float32{}, out[:result.EmotionCount]...)
	softmax(logits)
	id := argmax(logits)

	r := result.EmotionResult{EmotionID: id}
	copy(r.Scores[:], logits)

	if len(out) > result.EmotionCount+1 {
		r.Valence = tanhf(out[result.EmotionCount])
		r.Arousal = tanhf(out[result.EmotionCount+1])
	} else {
		r.Valence = valenceFallback[id]
		r.Arousal = arousalFallback[id]
	}
	return r, nil
}

// analyzeAntiSpoof runs the antispoof model over a fixed antiSpoofSamples
// window of raw waveform (zero-padded or truncated), softmaxing its two
// logits into {spoof, genuine}.
func (a *Analyzer) analyzeAntiSpoof(pcm []float32) (result.AntiSpoofResult, error) {
	input := make([]float32, antiSpoofSamples)
	n := len(pcm)
	if n > antiSpoofSamples {
		n = antiSpoofSamples
	}
	copy(input, pcm[:n])

	out, err := a.antiSpoof.Run(input, []int64{1, antiSpoofSamples})
	if err != nil {
		return result.AntiSpoofResult{}, fmt.Errorf("analyzer: antispoof inference: %w", err)
	}
	if len(out) < 2 {
		return result.AntiSpoofResult{}, fmt.Errorf("analyzer: antispoof model returned %d outputs, want 2", len(out))
	}

	logits := append([]float32{}, out[:2]...)
	softmax(logits)
	r := result.AntiSpoofResult{SpoofScore: logits[0], GenuineScore: logits[1]}
	r.IsGenuine = r.GenuineScore >= 0.5
	return r, nil
}

// analyzeLanguage runs the Whisper-style language-id model over a
// langMelBins x langMelFrames log-mel window (zero-padded or truncated),
// mapping the softmax argmax through the canonical language table.
func (a *Analyzer) analyzeLanguage(pcm []float32) (result.LanguageResult, error) {
	frames := a.fbank.Extract(pcm)
	if frames.Frames == 0 {
		return result.LanguageResult{}, fmt.Errorf("analyzer: no audio for language detection")
	}

	padded := make([]float32, langMelBins*langMelFrames)
	copyFrames := frames.Frames
	if copyFrames > langMelFrames {
		copyFrames = langMelFrames
	}
	for f := 0; f < copyFrames; f++ {
		for b := 0; b < langMelBins && b < frames.Bins; b++ {
			padded[b*langMelFrames+f] = frames.Data[f*frames.Bins+b]
		}
	}

	out, err := a.language.Run(padded, []int64{1, langMelBins, langMelFrames})
	if err != nil {
		return result.LanguageResult{}, fmt.Errorf("analyzer: language inference: %w", err)
	}
	if len(out) == 0 {
		return result.LanguageResult{}, fmt.Errorf("analyzer: language model returned no output")
	}

	logits := append([]float32{}, out...)
	softmax(logits)
	idx := argmax(logits)
	code, name := result.LanguageByIndex(idx)

	r := result.LanguageResult{
		Language:     code,
		LanguageName: name,
		Confidence:   logits[idx],
	}
	if code == "zh" {
		r.AccentRegion = "Mandarin"
	} else {
		r.AccentRegion = name
	}
	return r, nil
}
