package analyzer

import (
	"errors"

	"github.com/aurakit/voiceprint-go/result"
)

var (
	errEmptyAudio  = errors.New("analyzer: empty audio")
	errShortOutput = errors.New("analyzer: model returned fewer outputs than expected")
)

// Gender runs only the gender feature (plus whatever it requires) and
// projects the result. ok is false if the gender model isn't loaded.
func (a *Analyzer) Gender(pcm []float32) (result.GenderResult, bool, error) {
	out, err := a.Analyze(pcm, result.FeatureGender)
	if err != nil {
		return result.GenderResult{}, false, err
	}
	return out.Gender, out.FeaturesComputed&result.FeatureGender != 0, nil
}

// Age runs only the age feature and projects the result.
func (a *Analyzer) Age(pcm []float32) (result.AgeResult, bool, error) {
	out, err := a.Analyze(pcm, result.FeatureAge)
	if err != nil {
		return result.AgeResult{}, false, err
	}
	return out.Age, out.FeaturesComputed&result.FeatureAge != 0, nil
}

// Emotion runs only the emotion feature and projects the result.
func (a *Analyzer) Emotion(pcm []float32) (result.EmotionResult, bool, error) {
	out, err := a.Analyze(pcm, result.FeatureEmotion)
	if err != nil {
		return result.EmotionResult{}, false, err
	}
	return out.Emotion, out.FeaturesComputed&result.FeatureEmotion != 0, nil
}

// AntiSpoof runs only the anti-spoof feature and projects the result.
func (a *Analyzer) AntiSpoof(pcm []float32) (result.AntiSpoofResult, bool, error) {
	out, err := a.Analyze(pcm, result.FeatureAntiSpoof)
	if err != nil {
		return result.AntiSpoofResult{}, false, err
	}
	return out.AntiSpoof, out.FeaturesComputed&result.FeatureAntiSpoof != 0, nil
}

// Quality runs only the quality feature and projects the result. It needs
// no model; audio too short for one filterbank frame (25ms) yields a
// zero-valued result.
func (a *Analyzer) Quality(pcm []float32) (result.QualityResult, error) {
	out, err := a.Analyze(pcm, result.FeatureQuality)
	if err != nil {
		return result.QualityResult{}, err
	}
	return out.Quality, nil
}

// VoiceFeatures runs only the DSP voice-feature extraction.
func (a *Analyzer) VoiceFeatures(pcm []float32) (result.VoiceFeatures, error) {
	out, err := a.Analyze(pcm, result.FeatureVoiceFeatures)
	if err != nil {
		return result.VoiceFeatures{}, err
	}
	return out.VoiceFeatures, nil
}

// Pleasantness runs the quality/voice-feature prerequisites plus the
// derived pleasantness assessment.
func (a *Analyzer) Pleasantness(pcm []float32) (result.PleasantnessResult, error) {
	out, err := a.Analyze(pcm, result.FeaturePleasantness)
	if err != nil {
		return result.PleasantnessResult{}, err
	}
	return out.Pleasantness, nil
}

// VoiceState runs the quality/voice-feature prerequisites plus the
// derived fatigue/health/stress assessment.
func (a *Analyzer) VoiceState(pcm []float32) (result.VoiceStateResult, error) {
	out, err := a.Analyze(pcm, result.FeatureVoiceState)
	if err != nil {
		return result.VoiceStateResult{}, err
	}
	return out.VoiceState, nil
}

// Language runs only the language-id feature and projects the result.
func (a *Analyzer) Language(pcm []float32) (result.LanguageResult, bool, error) {
	out, err := a.Analyze(pcm, result.FeatureLanguage)
	if err != nil {
		return result.LanguageResult{}, false, err
	}
	return out.Language, out.FeaturesComputed&result.FeatureLanguage != 0, nil
}
