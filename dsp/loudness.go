package dsp

import "math"

// biquadState holds the Direct-Form-I delay history for one biquad IIR
// stage.
type biquadState struct{ x1, x2, y1, y2 float32 }

func biquadTick(x float32, s *biquadState, b0, b1, b2, a1, a2 float32) float32 {
	y := b0*x + b1*s.x1 + b2*s.x2 - a1*s.y1 - a2*s.y2
	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y
	return y
}

// K-weighting biquad coefficients for 16kHz, per BS.1770-4 (stage 1:
// high-shelf head-acoustics response; stage 2: 100Hz high-pass).
const (
	hsB0, hsB1, hsB2 = 1.5303, -2.6906, 1.1983
	hsA1, hsA2       = -1.6636, 0.7134
	hpB0, hpB1, hpB2 = 0.9961, -1.9922, 0.9961
	hpA1, hpA2       = -1.9921, 0.9924
)

// ComputeLUFS returns the ITU-R BS.1770-4 integrated loudness of pcm in
// LUFS, gated per the absolute (-70 LUFS) and relative (-10 LU) rules.
// Silent/empty input returns -70.
func ComputeLUFS(pcm []float32, sampleRate int) float32 {
	if len(pcm) == 0 {
		return -70.0
	}

	filtered := make([]float32, len(pcm))
	var hs, hp biquadState
	for i, x := range pcm {
		y1 := biquadTick(x, &hs, hsB0, hsB1, hsB2, hsA1, hsA2)
		filtered[i] = biquadTick(y1, &hp, hpB0, hpB1, hpB2, hpA1, hpA2)
	}

	blockSize := int(0.4 * float64(sampleRate))
	hopSize := int(0.1 * float64(sampleRate))
	n := len(pcm)

	var blockMS []float64
	for start := 0; start+blockSize <= n; start += hopSize {
		var sum float64
		for j := start; j < start+blockSize; j++ {
			sum += float64(filtered[j]) * float64(filtered[j])
		}
		blockMS = append(blockMS, sum/float64(blockSize))
	}

	if len(blockMS) == 0 {
		var sum float64
		for _, s := range filtered {
			sum += float64(s) * float64(s)
		}
		ms := sum / float64(len(filtered))
		if ms > 1e-10 {
			return float32(10.0*math.Log10(ms) - 0.691)
		}
		return -70.0
	}

	absThresholdMS := math.Pow(10.0, (-70.0-0.691)/10.0)
	var aboveAbs []float64
	for _, ms := range blockMS {
		if ms >= absThresholdMS {
			aboveAbs = append(aboveAbs, ms)
		}
	}
	if len(aboveAbs) == 0 {
		return -70.0
	}

	var meanAbs float64
	for _, ms := range aboveAbs {
		meanAbs += ms
	}
	meanAbs /= float64(len(aboveAbs))
	relThresholdMS := meanAbs * math.Pow(10.0, -1.0)

	var finalMean float64
	count := 0
	for _, ms := range blockMS {
		if ms >= relThresholdMS {
			finalMean += ms
			count++
		}
	}
	if count == 0 {
		return -70.0
	}
	finalMean /= float64(count)
	if finalMean > 1e-10 {
		return float32(10.0*math.Log10(finalMean) - 0.691)
	}
	return -70.0
}

func rms(v []float32) float64 {
	if len(v) == 0 {
		return 1e-12
	}
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s / float64(len(v)))
}

// ComputeSNRdB returns the ratio, in dB, of the speech buffer's RMS to the
// noise buffer's RMS — used when a caller has separate speech/silence
// segments (e.g. VAD output) to compare.
func ComputeSNRdB(speechPCM, noisePCM []float32) float32 {
	s := rms(speechPCM)
	n := rms(noisePCM)
	if n < 1e-12 {
		n = 1e-12
	}
	return float32(20.0 * math.Log10(s/n))
}

// ComputeSNRdBSimple estimates SNR from a single buffer by treating the
// quietest 20% of 10ms frames as the noise floor.
func ComputeSNRdBSimple(pcm []float32, sampleRate int) float32 {
	frameSize := sampleRate / 100
	if len(pcm) < frameSize {
		return 20.0
	}

	var frameEnergy []float64
	for i := 0; i+frameSize <= len(pcm); i += frameSize {
		var e float64
		for j := i; j < i+frameSize; j++ {
			e += float64(pcm[j]) * float64(pcm[j])
		}
		frameEnergy = append(frameEnergy, e/float64(frameSize))
	}
	sorted := append([]float64(nil), frameEnergy...)
	sortFloat64(sorted)

	noiseEnd := len(sorted) / 5
	if noiseEnd < 1 {
		noiseEnd = 1
	}
	var noiseE float64
	for i := 0; i < noiseEnd; i++ {
		noiseE += sorted[i]
	}
	noiseE /= float64(noiseEnd)

	var sigE float64
	for _, e := range frameEnergy {
		sigE += e
	}
	sigE /= float64(len(frameEnergy))

	if noiseE < 1e-12 {
		noiseE = 1e-12
	}
	return float32(10.0 * math.Log10(sigE/noiseE))
}

func sortFloat64(v []float64) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
}

// ComputeHNRdB estimates harmonics-to-noise ratio via autocorrelation at
// the lag implied by pitchHz. Falls back to 15dB when pitch is out of the
// plausible voiced range.
func ComputeHNRdB(pcm []float32, pitchHz float32, sampleRate int) float32 {
	if pitchHz < 50.0 || pitchHz > 600.0 || len(pcm) == 0 {
		return 15.0
	}
	t0 := int(math.Round(float64(sampleRate) / float64(pitchHz)))
	if t0 <= 0 || t0 >= len(pcm) {
		return 15.0
	}

	var r0, rT float64
	n := len(pcm) - t0
	for i := 0; i < n; i++ {
		r0 += float64(pcm[i]) * float64(pcm[i])
		rT += float64(pcm[i]) * float64(pcm[i+t0])
	}
	if r0 < 1e-12 {
		return 15.0
	}
	ratio := rT / r0
	ratio = math.Max(0, math.Min(0.9999, ratio))
	return float32(10.0 * math.Log10(ratio/(1.0-ratio)))
}

// ComputeRMS returns the root-mean-square amplitude of pcm.
func ComputeRMS(pcm []float32) float32 {
	if len(pcm) == 0 {
		return 0
	}
	var s float64
	for _, x := range pcm {
		s += float64(x) * float64(x)
	}
	return float32(math.Sqrt(s / float64(len(pcm))))
}

// ComputeClarity derives a [0,1] clarity proxy from the spectral centroid
// of mean log-mel energy (higher centroid → clearer articulation).
func ComputeClarity(fbankFrames []float32, numBins, numFrames int) float32 {
	if numFrames <= 0 || numBins <= 0 {
		return 0.5
	}
	meanSpec := make([]float64, numBins)
	for f := 0; f < numFrames; f++ {
		for b := 0; b < numBins; b++ {
			meanSpec[b] += float64(fbankFrames[f*numBins+b])
		}
	}
	for b := range meanSpec {
		meanSpec[b] /= float64(numFrames)
	}

	var total, weighted float64
	for b := 0; b < numBins; b++ {
		lin := math.Exp(meanSpec[b])
		total += lin
		weighted += lin * float64(b)
	}
	if total < 1e-12 {
		return 0.5
	}
	centroidBin := weighted / total
	clarity := float32(math.Min(1.0, centroidBin/(float64(numBins)*0.6)))
	return clarity
}

// ComputeEnergyVariability returns the standard deviation of 10ms-frame
// RMS energy, a speaking-dynamics proxy.
func ComputeEnergyVariability(pcm []float32, sampleRate int) float32 {
	frameSize := sampleRate / 100
	if len(pcm) < frameSize {
		return 0
	}
	var energies []float64
	for i := 0; i+frameSize <= len(pcm); i += frameSize {
		var e float64
		for j := i; j < i+frameSize; j++ {
			e += float64(pcm[j]) * float64(pcm[j])
		}
		energies = append(energies, math.Sqrt(e/float64(frameSize)))
	}
	var mean float64
	for _, e := range energies {
		mean += e
	}
	mean /= float64(len(energies))
	var v float64
	for _, e := range energies {
		v += (e - mean) * (e - mean)
	}
	return float32(math.Sqrt(v / float64(len(energies))))
}

// ComputeBreathiness measures frame-to-frame irregularity in the
// high-frequency mel bins (~4.6-8kHz) relative to their total energy.
func ComputeBreathiness(fbankFrames []float32, numBins, numFrames int) float32 {
	if numFrames <= 0 || numBins < 40 {
		return 0.3
	}
	hfStart := numBins * 65 / 80
	var hfTotal, hfIrregular float64
	for f := 1; f < numFrames; f++ {
		for b := hfStart; b < numBins; b++ {
			cur := float64(fbankFrames[f*numBins+b])
			prev := float64(fbankFrames[(f-1)*numBins+b])
			hfTotal += math.Abs(cur)
			hfIrregular += math.Abs(cur - prev)
		}
	}
	if hfTotal < 1e-10 {
		return 0.3
	}
	breath := float32(hfIrregular / (hfTotal * 2.0))
	return float32(math.Min(1.0, float64(breath)))
}

// ComputeResonanceScore returns the fraction of total mel energy carried
// by the 1-4kHz band, scaled into [0,1].
func ComputeResonanceScore(fbankFrames []float32, numBins, numFrames int) float32 {
	if numFrames <= 0 || numBins < 40 {
		return 0.4
	}
	midStart := numBins * 27 / 80
	midEnd := numBins * 61 / 80
	var mid, total float64
	for f := 0; f < numFrames; f++ {
		for b := 0; b < numBins; b++ {
			v := math.Exp(float64(fbankFrames[f*numBins+b]))
			total += v
			if b >= midStart && b < midEnd {
				mid += v
			}
		}
	}
	if total < 1e-12 {
		return 0.4
	}
	return float32(math.Min(1.0, (mid/total)*2.5))
}
