// Package analyzer implements the voice-analysis orchestrator: a
// feature-flag-driven fan-out over gender/age, emotion, anti-spoof,
// quality, voice-feature and language models, plus the DSP-only derived
// pleasantness and voice-state features. Missing optional models disable
// their feature silently rather than failing the whole call.
package analyzer

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/aurakit/voiceprint-go/audio"
	"github.com/aurakit/voiceprint-go/config"
	"github.com/aurakit/voiceprint-go/fbank"
	"github.com/aurakit/voiceprint-go/onnxsession"
	"github.com/aurakit/voiceprint-go/result"
	"github.com/aurakit/voiceprint-go/vad"
	"github.com/aurakit/voiceprint-go/verrors"
	"go.uber.org/zap"
)

// antiSpoofSamples is the fixed raw-waveform input length the antispoof
// model expects; shorter input is zero-padded, longer is truncated.
const antiSpoofSamples = 64600

// langMelFrames/langMelBins are the Whisper-style log-mel input
// dimensions the language model expects.
const (
	langMelFrames = 3000
	langMelBins   = 80
)

// Analyzer orchestrates per-utterance voice analysis across whichever
// optional models were found in the configured model directory.
type Analyzer struct {
	fbank          *fbank.Extractor
	detector       *vad.Detector
	genderAge      *onnxsession.Session
	emotion        *onnxsession.Session
	antiSpoof      *onnxsession.Session
	dnsmos         *onnxsession.Session
	language       *onnxsession.Session
	antiSpoofOn    bool
	loadedFeatures result.FeatureMask
	logger         *zap.Logger
}

// New loads whichever optional models named in cfg.Models are present
// under cfg.ModelDir and returns a ready Analyzer. A missing optional
// model logs a warning and disables its feature rather than failing
// New. A missing VAD model is tolerated too: Analyze then treats the whole
// buffer as speech.
func New(cfg config.Config, logger *zap.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "analyzer"))

	a := &Analyzer{
		fbank:       fbank.NewExtractor(fbank.Default()),
		antiSpoofOn: cfg.AntiSpoofEnabled,
		logger:      logger,
	}

	if det, err := tryLoadVAD(cfg); err == nil {
		a.detector = det
	} else {
		logger.Warn("VAD model unavailable, analyzer will skip speech/noise separation", zap.Error(err))
	}

	type modelSlot struct {
		flag     result.FeatureMask
		filename string
		assign   func(*onnxsession.Session)
	}
	slots := []modelSlot{
		{result.FeatureGender | result.FeatureAge, cfg.Models.GenderAge, func(s *onnxsession.Session) { a.genderAge = s }},
		{result.FeatureEmotion, cfg.Models.Emotion, func(s *onnxsession.Session) { a.emotion = s }},
		{result.FeatureAntiSpoof, cfg.Models.AntiSpoof, func(s *onnxsession.Session) { a.antiSpoof = s }},
		{result.FeatureQuality, cfg.Models.Quality, func(s *onnxsession.Session) { a.dnsmos = s }},
		{result.FeatureLanguage, cfg.Models.Language, func(s *onnxsession.Session) { a.language = s }},
	}
	for _, slot := range slots {
		path := filepath.Join(cfg.ModelDir, slot.filename)
		if _, err := os.Stat(path); err != nil {
			logger.Warn("optional model not found, feature disabled", zap.String("path", path))
			continue
		}
		sess, err := onnxsession.Load(path, cfg.NumThreads)
		if err != nil {
			logger.Warn("failed to load optional model, feature disabled", zap.String("path", path), zap.Error(err))
			continue
		}
		slot.assign(sess)
		a.loadedFeatures |= slot.flag
		logger.Info("loaded model", zap.String("path", path))
	}

	// DSP-only features are always available once VAD+fbank run.
	a.loadedFeatures |= result.FeatureQuality | result.FeatureVoiceFeatures |
		result.FeaturePleasantness | result.FeatureVoiceState

	return a, nil
}

func tryLoadVAD(cfg config.Config) (*vad.Detector, error) {
	path := filepath.Join(cfg.ModelDir, cfg.Models.VAD)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return vad.Load(path)
}

// SetAntiSpoofEnabled toggles whether Analyze attempts the anti-spoof
// feature, independent of whether its model is loaded.
func (a *Analyzer) SetAntiSpoofEnabled(enabled bool) { a.antiSpoofOn = enabled }

// Close releases every loaded model session.
func (a *Analyzer) Close() error {
	for _, s := range []*onnxsession.Session{a.genderAge, a.emotion, a.antiSpoof, a.dnsmos, a.language} {
		if s != nil {
			s.Close()
		}
	}
	if a.detector != nil {
		a.detector.Close()
	}
	return nil
}

// Analyze runs every feature named in flags that this Analyzer's loaded
// models support, returning the subset actually computed in
// Analysis.FeaturesComputed.
func (a *Analyzer) Analyze(pcm []float32, flags result.FeatureMask) (*result.Analysis, error) {
	if len(pcm) == 0 {
		return nil, verrors.ErrAudioInvalid
	}
	flags = result.RequiredFlags(flags)

	speechPCM, noisePCM := a.splitSpeechNoise(pcm)

	needsFbank := flags&(result.FeatureGender|result.FeatureAge|result.FeatureEmotion|
		result.FeatureQuality|result.FeatureVoiceFeatures|result.FeaturePleasantness|
		result.FeatureVoiceState) != 0

	var frames fbank.Matrix
	fbankOK := false
	if needsFbank {
		frames = a.fbank.Extract(speechPCM)
		fbankOK = frames.Frames > 0
	}

	out := &result.Analysis{}
	var computed result.FeatureMask

	if flags&(result.FeatureGender|result.FeatureAge) != 0 && fbankOK && a.genderAge != nil {
		g, ag, err := a.analyzeGenderAge(frames)
		if err == nil {
			out.Gender, out.Age = g, ag
			computed |= result.FeatureGender | result.FeatureAge
		} else {
			a.logger.Warn("gender/age inference failed", zap.Error(err))
		}
	}

	var emoPtr *result.EmotionResult
	if flags&result.FeatureEmotion != 0 && fbankOK && a.emotion != nil {
		emo, err := a.analyzeEmotion(frames)
		if err == nil {
			out.Emotion = emo
			emoPtr = &out.Emotion
			computed |= result.FeatureEmotion
		} else {
			a.logger.Warn("emotion inference failed", zap.Error(err))
		}
	}

	if flags&result.FeatureAntiSpoof != 0 && a.antiSpoofOn && a.antiSpoof != nil {
		as, err := a.analyzeAntiSpoof(pcm)
		if err == nil {
			out.AntiSpoof = as
			computed |= result.FeatureAntiSpoof
		} else {
			a.logger.Warn("antispoof inference failed", zap.Error(err))
		}
	}

	var vf result.VoiceFeatures
	if flags&result.FeatureVoiceFeatures != 0 && fbankOK {
		vf = a.analyzeVoiceFeatures(speechPCM, frames)
		out.VoiceFeatures = vf
		computed |= result.FeatureVoiceFeatures
	}

	var q result.QualityResult
	if flags&result.FeatureQuality != 0 && fbankOK {
		q = a.analyzeQuality(speechPCM, noisePCM, frames, vf.PitchHz)
		out.Quality = q
		computed |= result.FeatureQuality
	}

	if flags&result.FeaturePleasantness != 0 && fbankOK {
		out.Pleasantness = analyzePleasantness(q, vf, emoPtr)
		computed |= result.FeaturePleasantness
	}

	if flags&result.FeatureVoiceState != 0 && fbankOK {
		out.VoiceState = analyzeVoiceState(q, vf, emoPtr)
		computed |= result.FeatureVoiceState
	}

	if flags&result.FeatureLanguage != 0 && a.language != nil {
		lang, err := a.analyzeLanguage(pcm)
		if err == nil {
			out.Language = lang
			computed |= result.FeatureLanguage
		} else {
			a.logger.Warn("language inference failed", zap.Error(err))
		}
	}

	out.FeaturesComputed = computed
	return out, nil
}

// AnalyzeFile reads wavPath (resampling to 16kHz if needed) and analyzes
// it.
func (a *Analyzer) AnalyzeFile(wavPath string, flags result.FeatureMask) (*result.Analysis, error) {
	buf, err := audio.ReadWAV(wavPath)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	return a.Analyze(buf.Normalize().Samples, flags)
}

// splitSpeechNoise runs VAD (if loaded) to separate speech from
// non-speech samples; with no VAD model, the whole buffer is treated as
// speech and noise is empty.
func (a *Analyzer) splitSpeechNoise(pcm []float32) (speechPCM, noisePCM []float32) {
	if a.detector == nil {
		return pcm, nil
	}
	segments, err := a.detector.Detect(pcm)
	if err != nil || len(segments) == 0 {
		return pcm, nil
	}

	isSpeech := make([]bool, len(pcm))
	for _, seg := range segments {
		end := seg.EndSample
		if end > len(pcm) {
			end = len(pcm)
		}
		for i := seg.StartSample; i < end; i++ {
			isSpeech[i] = true
		}
	}
	for i, s := range isSpeech {
		if s {
			speechPCM = append(speechPCM, pcm[i])
		} else {
			noisePCM = append(noisePCM, pcm[i])
		}
	}
	if len(speechPCM) == 0 {
		speechPCM = pcm
	}
	return speechPCM, noisePCM
}

func softmax(x []float32) {
	max := x[0]
	for _, v := range x {
		if v > max {
			max = v
		}
	}
	var sum float32
	for i, v := range x {
		e := float32(math.Exp(float64(v - max)))
		x[i] = e
		sum += e
	}
	if sum > 1e-8 {
		for i := range x {
			x[i] /= sum
		}
	}
}

func argmax(x []float32) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}

func tanhf(v float32) float32 {
	return float32(math.Tanh(float64(v)))
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
