// Package dsp implements the voice-feature signal-processing kit: YIN pitch
// tracking, BS.1770-4 loudness, SNR/HNR estimators, and the mel-frame
// derived clarity/breathiness/resonance heuristics consumed by the
// analyzer's VOICE_FEATURES and PLEASANTNESS derivations.
package dsp

import "math"

// PitchFrame is one 10ms YIN pitch estimate.
type PitchFrame struct {
	F0Hz        float32
	Probability float32
}

// PitchAnalyzer runs de Cheveigné & Kawahara's YIN algorithm over 16kHz
// mono PCM in 10ms hops.
type PitchAnalyzer struct {
	sampleRate           int
	minF0, maxF0         float32
	threshold            float32
	minPeriod, maxPeriod int
	frameSize            int
}

// NewPitchAnalyzer constructs a YIN tracker for the given sample rate and
// voiced-range bounds (defaults: 60-600Hz, threshold 0.15).
func NewPitchAnalyzer(sampleRate int, minF0, maxF0, threshold float32) *PitchAnalyzer {
	return &PitchAnalyzer{
		sampleRate: sampleRate,
		minF0:      minF0,
		maxF0:      maxF0,
		threshold:  threshold,
		minPeriod:  int(float32(sampleRate) / maxF0),
		maxPeriod:  int(float32(sampleRate) / minF0),
		frameSize:  int(float32(sampleRate)/minF0) * 2,
	}
}

// DefaultPitchAnalyzer returns the canonical 16kHz/60-600Hz/0.15 tracker.
func DefaultPitchAnalyzer() *PitchAnalyzer {
	return NewPitchAnalyzer(16000, 60.0, 600.0, 0.15)
}

// Analyze returns one PitchFrame per 10ms hop across pcm.
func (p *PitchAnalyzer) Analyze(pcm []float32) []PitchFrame {
	hop := p.sampleRate / 100
	var frames []PitchFrame
	if len(pcm) < p.frameSize {
		return frames
	}
	for start := 0; start+p.frameSize <= len(pcm); start += hop {
		frames = append(frames, p.estimateFrame(pcm[start:start+p.frameSize]))
	}
	return frames
}

func (p *PitchAnalyzer) estimateFrame(frame []float32) PitchFrame {
	n := len(frame)
	tauMax := p.maxPeriod
	if n/2 < tauMax {
		tauMax = n / 2
	}

	df := make([]float64, tauMax+1)
	for tau := 1; tau <= tauMax; tau++ {
		limit := tauMax * 2
		if n-tau < limit {
			limit = n - tau
		}
		var sum float64
		for j := 0; j < limit; j++ {
			diff := float64(frame[j]) - float64(frame[j+tau])
			sum += diff * diff
		}
		df[tau] = sum
	}

	cmndf := make([]float64, tauMax+1)
	cmndf[0] = 1.0
	running := 0.0
	for tau := 1; tau <= tauMax; tau++ {
		running += df[tau]
		if running > 0 {
			cmndf[tau] = df[tau] * float64(tau) / running
		} else {
			cmndf[tau] = 1.0
		}
	}

	bestTau := -1
	for tau := p.minPeriod; tau <= tauMax; tau++ {
		if cmndf[tau] < float64(p.threshold) {
			for tau+1 <= tauMax && cmndf[tau+1] < cmndf[tau] {
				tau++
			}
			bestTau = tau
			break
		}
	}

	if bestTau < 0 {
		minVal := math.Inf(1)
		minT := -1
		for tau := p.minPeriod; tau <= tauMax; tau++ {
			if cmndf[tau] < minVal {
				minVal = cmndf[tau]
				minT = tau
			}
		}
		if minVal < 0.35 && minT > 0 {
			bestTau = minT
		}
	}

	if bestTau <= 0 {
		return PitchFrame{}
	}

	f0 := float32(p.sampleRate) / float32(bestTau)
	prob := float32(math.Max(0, 1.0-cmndf[bestTau]))
	return PitchFrame{F0Hz: f0, Probability: prob}
}

// PitchSummary aggregates a PitchFrame series into mean/std F0 and the
// voiced fraction.
type PitchSummary struct {
	MeanF0Hz       float32
	StdF0Hz        float32
	VoicedFraction float32
}

// Summarize computes mean/std F0 over voiced frames only, plus the
// fraction of frames that were voiced at all.
func Summarize(frames []PitchFrame) PitchSummary {
	var s PitchSummary
	if len(frames) == 0 {
		return s
	}
	var voiced []float32
	for _, f := range frames {
		if f.F0Hz > 0 {
			voiced = append(voiced, f.F0Hz)
		}
	}
	s.VoicedFraction = float32(len(voiced)) / float32(len(frames))
	if len(voiced) == 0 {
		return s
	}
	var sum float64
	for _, v := range voiced {
		sum += float64(v)
	}
	mean := sum / float64(len(voiced))
	s.MeanF0Hz = float32(mean)
	var varSum float64
	for _, v := range voiced {
		d := float64(v) - mean
		varSum += d * d
	}
	s.StdF0Hz = float32(math.Sqrt(varSum / float64(len(voiced))))
	return s
}

// EstimateSpeakingRate counts energy-envelope peaks (syllable nuclei
// proxy) per second over a 16kHz buffer.
func EstimateSpeakingRate(pcm []float32, sampleRate int) float32 {
	frameSize := sampleRate / 100
	n := len(pcm)
	if n < frameSize {
		return 0
	}

	var energy []float32
	for i := 0; i+frameSize <= n; i += frameSize {
		var e float64
		for j := i; j < i+frameSize; j++ {
			e += float64(pcm[j]) * float64(pcm[j])
		}
		energy = append(energy, float32(math.Sqrt(e/float64(frameSize))))
	}

	smooth := make([]float32, len(energy))
	for i := range energy {
		lo := i - 2
		if lo < 0 {
			lo = 0
		}
		hi := i + 2
		if hi > len(energy)-1 {
			hi = len(energy) - 1
		}
		var s float32
		cnt := 0
		for k := lo; k <= hi; k++ {
			s += energy[k]
			cnt++
		}
		smooth[i] = s / float32(cnt)
	}

	var meanE float32
	for _, e := range smooth {
		meanE += e
	}
	meanE /= float32(len(smooth))

	peaks := 0
	const minGap = 5
	lastPeak := -minGap
	for i := 1; i+1 < len(smooth); i++ {
		if smooth[i] > smooth[i-1] && smooth[i] > smooth[i+1] &&
			smooth[i] > meanE*1.2 && i-lastPeak >= minGap {
			peaks++
			lastPeak = i
		}
	}

	durationSec := float32(n) / float32(sampleRate)
	if durationSec > 0.1 {
		return float32(peaks) / durationSec
	}
	return 0
}

// VoiceStability combines jitter (F0 period-to-period variation) and
// shimmer (amplitude variation) into a [0,1] stability score (1=stable).
func VoiceStability(f0Frames []PitchFrame, pcm []float32, sampleRate int) float32 {
	var voicedF0 []float32
	for _, f := range f0Frames {
		if f.F0Hz > 0 {
			voicedF0 = append(voicedF0, f.F0Hz)
		}
	}

	jitter := float32(1.0)
	if len(voicedF0) > 2 {
		var sumDiff float64
		for i := 1; i < len(voicedF0); i++ {
			sumDiff += math.Abs(float64(voicedF0[i]) - float64(voicedF0[i-1]))
		}
		var meanF0 float64
		for _, f := range voicedF0 {
			meanF0 += float64(f)
		}
		meanF0 /= float64(len(voicedF0))
		jitter = float32(sumDiff / (float64(len(voicedF0)-1) * meanF0))
	}

	hop := sampleRate / 100
	var frameRMS []float32
	for i := 0; i+hop <= len(pcm); i += hop {
		var e float64
		for j := i; j < i+hop; j++ {
			e += float64(pcm[j]) * float64(pcm[j])
		}
		frameRMS = append(frameRMS, float32(math.Sqrt(e/float64(hop))))
	}
	shimmer := float32(1.0)
	if len(frameRMS) > 2 {
		var sumDiff float64
		for i := 1; i < len(frameRMS); i++ {
			sumDiff += math.Abs(float64(frameRMS[i]) - float64(frameRMS[i-1]))
		}
		var meanAmp float64
		for _, a := range frameRMS {
			meanAmp += float64(a)
		}
		meanAmp /= float64(len(frameRMS))
		if meanAmp > 1e-6 {
			shimmer = float32(sumDiff / (float64(len(frameRMS)-1) * meanAmp))
		}
	}

	jitterScore := float32(math.Max(0, 1.0-math.Min(1.0, float64(jitter)*10.0)))
	shimmerScore := float32(math.Max(0, 1.0-math.Min(1.0, float64(shimmer)*5.0)))
	return 0.5*jitterScore + 0.5*shimmerScore
}
