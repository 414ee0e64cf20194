package analyzer

import (
	"github.com/aurakit/voiceprint-go/dsp"
	"github.com/aurakit/voiceprint-go/fbank"
	"github.com/aurakit/voiceprint-go/result"
)

// analyzeVoiceFeatures derives the pitch/rate/stability/timbre feature set
// directly from the speech buffer and its filterbank frames — no model
// dependency, always available.
func (a *Analyzer) analyzeVoiceFeatures(speechPCM []float32, frames fbank.Matrix) result.VoiceFeatures {
	pitchFrames := dsp.DefaultPitchAnalyzer().Analyze(speechPCM)
	pitchSummary := dsp.Summarize(pitchFrames)

	return result.VoiceFeatures{
		PitchHz:           pitchSummary.MeanF0Hz,
		PitchVariability:  pitchSummary.StdF0Hz,
		SpeakingRate:      dsp.EstimateSpeakingRate(speechPCM, 16000),
		VoiceStability:    dsp.VoiceStability(pitchFrames, speechPCM, 16000),
		Breathiness:       dsp.ComputeBreathiness(frames.Data, frames.Bins, frames.Frames),
		ResonanceScore:    dsp.ComputeResonanceScore(frames.Data, frames.Bins, frames.Frames),
		EnergyMean:        dsp.ComputeRMS(speechPCM),
		EnergyVariability: dsp.ComputeEnergyVariability(speechPCM, 16000),
	}
}

// analyzeQuality computes SNR/loudness/HNR/clarity/noise-level from DSP
// alone, plus an MOS estimate: from the DNSMOS model (output index 2, the
// "OVR" head) when loaded, else a metrics-based estimate derived from
// SNR and HNR.
func (a *Analyzer) analyzeQuality(speechPCM, noisePCM []float32, frames fbank.Matrix, pitchHz float32) result.QualityResult {
	var snr float32
	if len(noisePCM) > 0 {
		snr = dsp.ComputeSNRdB(speechPCM, noisePCM)
	} else {
		snr = dsp.ComputeSNRdBSimple(speechPCM, 16000)
	}

	lufs := dsp.ComputeLUFS(speechPCM, 16000)
	hnr := dsp.ComputeHNRdB(speechPCM, pitchHz, 16000)
	clarity := dsp.ComputeClarity(frames.Data, frames.Bins, frames.Frames)
	noiseLevel := clamp32(1.0-(clamp32(snr, -10, 40)+10)/50.0, 0, 1)

	q := result.QualityResult{
		SNRdB:        snr,
		LoudnessLUFS: lufs,
		HNRdB:        hnr,
		Clarity:      clarity,
		NoiseLevel:   noiseLevel,
	}

	if a.dnsmos != nil {
		if mos, err := a.runDNSMOS(speechPCM); err == nil {
			q.MOSScore = mos
		} else {
			a.logger.Warn("dnsmos inference failed, falling back to metrics estimate")
			q.MOSScore = estimateMOS(snr, hnr)
		}
	} else {
		q.MOSScore = estimateMOS(snr, hnr)
	}

	return q
}

// runDNSMOS runs the DNSMOS quality model over a langMelBins x
// langMelFrames log-mel window built from speechPCM (zero-padded or
// truncated), taking output index 2 — the "OVR" overall-quality head —
// clamped to [1, 5].
//
// The reference implementation hard-codes a 512-frame input window; this
// module instead sizes the window at langMelFrames (3000) frames, matching
// the same Whisper-style log-mel shape the language model consumes.
func (a *Analyzer) runDNSMOS(speechPCM []float32) (float32, error) {
	frames := a.fbank.Extract(speechPCM)
	if frames.Frames == 0 {
		return 0, errEmptyAudio
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

	out, err := a.dnsmos.Run(padded, []int64{1, langMelBins, langMelFrames})
	if err != nil {
		return 0, err
	}
	if len(out) < 3 {
		return 0, errShortOutput
	}
	return clamp32(out[2], 1, 5), nil
}

func estimateMOS(snr, hnr float32) float32 {
	snrNorm := clamp32((snr+5)/40.0, 0, 1)
	hnrNorm := clamp32((hnr+5)/30.0, 0, 1)
	return 1.0 + 3.5*(0.6*snrNorm+0.4*hnrNorm)
}

// analyzePleasantness derives the four-subscore pleasantness assessment
// purely from quality/voice-feature/emotion outputs already computed this
// call; emo may be nil when emotion wasn't requested or its model isn't
// loaded, in which case warmth falls back to a neutral valence.
func analyzePleasantness(q result.QualityResult, vf result.VoiceFeatures, emo *result.EmotionResult) result.PleasantnessResult {
	idealMale := clamp32(1.0-abs32(vf.PitchHz-130)/100.0, 0, 1)
	idealFemale := clamp32(1.0-abs32(vf.PitchHz-210)/100.0, 0, 1)
	pitchScore := idealMale
	if idealFemale > pitchScore {
		pitchScore = idealFemale
	}
	magnetism := clamp32((0.4*pitchScore+0.35*vf.VoiceStability+0.25*vf.ResonanceScore)*100, 0, 100)

	valenceNorm := float32(0.5)
	if emo != nil {
		valenceNorm = clamp32((emo.Valence+1)/2.0, 0, 1)
	}
	rateScore := clamp32(1.0-abs32(vf.SpeakingRate-4)/4.0, 0, 1)
	warmth := clamp32((0.5*valenceNorm+0.3*rateScore+0.2*(1-vf.Breathiness))*100, 0, 100)

	authority := clamp32((0.4*vf.VoiceStability+0.35*vf.ResonanceScore+0.25*(1-vf.Breathiness))*100, 0, 100)

	mosNorm := clamp32((q.MOSScore-1)/4.0, 0, 1)
	snrNorm := clamp32((q.SNRdB+5)/40.0, 0, 1)
	clarityScore := clamp32((0.5*mosNorm+0.3*snrNorm+0.2*q.Clarity)*100, 0, 100)

	overall := clamp32(0.30*magnetism+0.25*warmth+0.20*authority+0.25*clarityScore, 0, 100)

	return result.PleasantnessResult{
		Magnetism:    magnetism,
		Warmth:       warmth,
		Authority:    authority,
		ClarityScore: clarityScore,
		OverallScore: overall,
	}
}

// analyzeVoiceState derives the rule-based fatigue/health/stress
// assessment from quality/voice-feature/emotion outputs already computed
// this call.
func analyzeVoiceState(q result.QualityResult, vf result.VoiceFeatures, emo *result.EmotionResult) result.VoiceStateResult {
	var fatigue float32
	if vf.PitchHz > 0 && vf.PitchHz < 100 {
		fatigue += 0.25
	}
	if vf.SpeakingRate < 2.5 {
		fatigue += 0.25
	}
	if vf.EnergyMean < 0.02 {
		fatigue += 0.25
	}
	if vf.VoiceStability < 0.4 {
		fatigue += 0.25
	}
	fatigue = clamp32(fatigue, 0, 1)

	fatigueLevel := result.FatigueNormal
	if fatigue > 0.7 {
		fatigueLevel = result.FatigueHigh
	} else if fatigue > 0.35 {
		fatigueLevel = result.FatigueModerate
	}

	healthState := result.HealthNormal
	switch {
	case vf.Breathiness > 0.7 && q.HNRdB < 5:
		healthState = result.HealthHoarse
	case vf.Breathiness > 0.65:
		healthState = result.HealthBreathy
	case vf.ResonanceScore > 0.75 && vf.PitchVariability < 20:
		healthState = result.HealthNasal
	}
	healthScore := clamp32(0.5*(1-vf.Breathiness)+0.5*clamp32((q.HNRdB+5)/30.0, 0, 1), 0, 1)

	var stress float32
	if vf.PitchHz > 220 && vf.PitchVariability > 40 {
		stress += 0.3
	}
	if vf.SpeakingRate > 6 {
		stress += 0.25
	}
	if emo != nil && emo.Arousal > 0.5 {
		stress += 0.25
	}
	if vf.EnergyVariability > 0.1 {
		stress += 0.2
	}
	stress = clamp32(stress, 0, 1)

	stressLevel := result.StressLow
	if stress > 0.65 {
		stressLevel = result.StressHigh
	} else if stress > 0.30 {
		stressLevel = result.StressMedium
	}

	return result.VoiceStateResult{
		FatigueScore: fatigue,
		FatigueLevel: fatigueLevel,
		HealthScore:  healthScore,
		HealthState:  healthState,
		StressScore:  stress,
		StressLevel:  stressLevel,
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
