// Package fbank computes 80-bin log-mel filterbank features: 25ms/10ms
// Hamming-windowed, DC-removed frames, an FFT-derived power spectrum
// folded through a triangular mel filterbank, log-compressed and
// per-utterance CMVN-normalized — the input representation the speaker
// embedding network expects.
package fbank

import (
	"math"
	"math/cmplx"

	"github.com/madelynnblue/go-dsp/fft"
)

// Matrix is a row-major frame-by-bin feature matrix: Data[f*Bins+b].
type Matrix struct {
	Data   []float32
	Frames int
	Bins   int
}

// Options configures filterbank extraction. Zero-valued fields fall back
// to Default().
type Options struct {
	NumBins       int
	SampleRate    int
	FrameLengthMs float32
	FrameShiftMs  float32
	LowFreqHz     float32
	HighFreqHz    float32 // 0 means Nyquist
}

// Default returns the canonical 80-bin, 16kHz, 25ms/10ms configuration.
func Default() Options {
	return Options{
		NumBins:       80,
		SampleRate:    16000,
		FrameLengthMs: 25.0,
		FrameShiftMs:  10.0,
		LowFreqHz:     20.0,
		HighFreqHz:    0.0,
	}
}

// Extractor holds a precomputed mel filterbank for repeated extraction
// calls at fixed Options.
type Extractor struct {
	opts          Options
	frameLen      int
	frameShift    int
	fftSize       int
	melFilters    [][]float32 // [bin][fftSize/2+1]
}

// NewExtractor builds the triangular mel filterbank for opts. Zero fields
// are filled from Default().
func NewExtractor(opts Options) *Extractor {
	def := Default()
	if opts.NumBins == 0 {
		opts.NumBins = def.NumBins
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = def.SampleRate
	}
	if opts.FrameLengthMs == 0 {
		opts.FrameLengthMs = def.FrameLengthMs
	}
	if opts.FrameShiftMs == 0 {
		opts.FrameShiftMs = def.FrameShiftMs
	}
	if opts.LowFreqHz == 0 {
		opts.LowFreqHz = def.LowFreqHz
	}

	e := &Extractor{opts: opts}
	e.frameLen = int(opts.FrameLengthMs * float32(opts.SampleRate) / 1000.0)
	e.frameShift = int(opts.FrameShiftMs * float32(opts.SampleRate) / 1000.0)

	fftSize := 1
	for fftSize < e.frameLen {
		fftSize <<= 1
	}
	e.fftSize = fftSize

	highFreq := opts.HighFreqHz
	if highFreq <= 0 {
		highFreq = float32(opts.SampleRate) / 2.0
	}
	e.melFilters = buildMelFilterbank(opts.NumBins, fftSize, opts.SampleRate, opts.LowFreqHz, highFreq)
	return e
}

// NumFrames returns how many frames numSamples yields at this extractor's
// frame length/shift (0 if too short for even one frame).
func (e *Extractor) NumFrames(numSamples int) int {
	if numSamples < e.frameLen {
		return 0
	}
	return 1 + (numSamples-e.frameLen)/e.frameShift
}

// Extract computes log-mel filterbank features over audio (16kHz mono),
// DC-removing and Hamming-windowing each frame before the FFT, then
// applying per-utterance CMVN across the resulting frame matrix.
func (e *Extractor) Extract(audio []float32) Matrix {
	numFrames := e.NumFrames(len(audio))
	if numFrames <= 0 {
		return Matrix{Bins: e.opts.NumBins}
	}

	data := make([]float32, numFrames*e.opts.NumBins)
	window := hammingWindow(e.frameLen)
	fftBuf := make([]complex128, e.fftSize)

	for f := 0; f < numFrames; f++ {
		start := f * e.frameShift
		frame := audio[start : start+e.frameLen]

		var mean float64
		for _, s := range frame {
			mean += float64(s)
		}
		mean /= float64(len(frame))

		for i := range fftBuf {
			if i < len(frame) {
				fftBuf[i] = complex((float64(frame[i])-mean)*window[i], 0)
			} else {
				fftBuf[i] = 0
			}
		}

		spectrum := fft.FFT(fftBuf)
		half := e.fftSize/2 + 1
		power := make([]float64, half)
		for i := 0; i < half; i++ {
			mag := cmplx.Abs(spectrum[i])
			power[i] = mag * mag
		}

		for b := 0; b < e.opts.NumBins; b++ {
			var energy float64
			filt := e.melFilters[b]
			for i, w := range filt {
				energy += float64(w) * power[i]
			}
			if energy < 1e-10 {
				energy = 1e-10
			}
			data[f*e.opts.NumBins+b] = float32(math.Log(energy))
		}
	}

	m := Matrix{Data: data, Frames: numFrames, Bins: e.opts.NumBins}
	applyCMVN(m)
	return m
}

func hammingWindow(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// applyCMVN per-utterance mean/variance normalizes m in place, one pass
// per mel bin across all frames (epsilon 1e-10 inside the variance sqrt
// guards against divide-by-zero on near-silent input).
func applyCMVN(m Matrix) {
	if m.Frames <= 0 {
		return
	}
	mean := make([]float64, m.Bins)
	variance := make([]float64, m.Bins)

	for f := 0; f < m.Frames; f++ {
		for b := 0; b < m.Bins; b++ {
			mean[b] += float64(m.Data[f*m.Bins+b])
		}
	}
	for b := 0; b < m.Bins; b++ {
		mean[b] /= float64(m.Frames)
	}

	for f := 0; f < m.Frames; f++ {
		for b := 0; b < m.Bins; b++ {
			diff := float64(m.Data[f*m.Bins+b]) - mean[b]
			variance[b] += diff * diff
		}
	}
	for b := 0; b < m.Bins; b++ {
		variance[b] = math.Sqrt(variance[b]/float64(m.Frames) + 1e-10)
	}

	for f := 0; f < m.Frames; f++ {
		for b := 0; b < m.Bins; b++ {
			idx := f*m.Bins + b
			m.Data[idx] = float32((float64(m.Data[idx]) - mean[b]) / variance[b])
		}
	}
}

func hzToMel(hz float32) float64 {
	return 2595.0 * math.Log10(1.0+float64(hz)/700.0)
}

func melToHz(mel float64) float32 {
	return float32(700.0 * (math.Pow(10.0, mel/2595.0) - 1.0))
}

// buildMelFilterbank constructs numBins triangular filters spaced evenly
// in mel scale between lowFreq and highFreq, each expressed as a weight
// vector over the fftSize/2+1 real-FFT magnitude bins.
func buildMelFilterbank(numBins, fftSize, sampleRate int, lowFreq, highFreq float32) [][]float32 {
	lowMel := hzToMel(lowFreq)
	highMel := hzToMel(highFreq)
	melPoints := make([]float64, numBins+2)
	for i := range melPoints {
		melPoints[i] = lowMel + (highMel-lowMel)*float64(i)/float64(numBins+1)
	}

	half := fftSize/2 + 1
	binFreqs := make([]float32, half)
	for i := 0; i < half; i++ {
		binFreqs[i] = float32(i) * float32(sampleRate) / float32(fftSize)
	}

	hzPoints := make([]float32, len(melPoints))
	for i, mp := range melPoints {
		hzPoints[i] = melToHz(mp)
	}

	filters := make([][]float32, numBins)
	for b := 0; b < numBins; b++ {
		filt := make([]float32, half)
		left, center, right := hzPoints[b], hzPoints[b+1], hzPoints[b+2]
		for i := 0; i < half; i++ {
			f := binFreqs[i]
			switch {
			case f < left || f > right:
				filt[i] = 0
			case f <= center:
				if center > left {
					filt[i] = (f - left) / (center - left)
				}
			default:
				if right > center {
					filt[i] = (right - f) / (right - center)
				}
			}
		}
		filters[b] = filt
	}
	return filters
}
