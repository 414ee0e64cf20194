// Package vad implements streaming voice-activity detection on top of a
// Silero-v5-style ONNX model: fixed 512-sample windows at 16kHz, a pooled
// [2,1,128] combined hidden state, and a start/merge/min-duration state
// machine that turns per-window speech probabilities into Segments.
package vad

import (
	"fmt"

	"github.com/aurakit/voiceprint-go/verrors"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// WindowSize is the number of float32 samples per inference call —
	// 32ms at 16kHz.
	WindowSize = 512
	// StateSize is the per-layer hidden-state width of the combined
	// [2,1,128] Silero v5 state tensor.
	StateSize = 128
	// SampleRate is the only sample rate this detector accepts.
	SampleRate = 16000

	// MinSilenceDurationMs is the silence run, after speech, required to
	// close a segment.
	MinSilenceDurationMs = 300
	// MinSpeechDurationMs is the minimum duration a candidate segment must
	// reach to be emitted.
	MinSpeechDurationMs = 250
	// DefaultThreshold is the speech-probability cut used by Detect when
	// the caller hasn't overridden it via SetThreshold.
	DefaultThreshold = 0.5
)

// Segment is one detected span of speech.
type Segment struct {
	StartSample int
	EndSample   int
	Confidence  float32
}

// Detector wraps a loaded Silero-style VAD ONNX session with pooled
// input/state/sr/output/stateN tensors reused across every window of an
// utterance (as opposed to onnxsession.Session, whose tensors are
// allocated fresh per call for variable-shape models).
type Detector struct {
	session *ort.AdvancedSession

	inputTensor  *ort.Tensor[float32]
	stateTensor  *ort.Tensor[float32]
	srTensor     *ort.Tensor[int64]
	outputTensor *ort.Tensor[float32]
	stateNTensor *ort.Tensor[float32]

	threshold float32
}

// Load builds a Detector from a Silero-v5-format ONNX model at modelPath.
func Load(modelPath string) (*Detector, error) {
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, WindowSize))
	if err != nil {
		return nil, fmt.Errorf("vad: create input tensor: %w", err)
	}
	stateTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, StateSize))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("vad: create state tensor: %w", err)
	}
	srTensor, err := ort.NewTensor(ort.NewShape(1), []int64{int64(SampleRate)})
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		return nil, fmt.Errorf("vad: create sr tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		return nil, fmt.Errorf("vad: create output tensor: %w", err)
	}
	stateNTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, StateSize))
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("vad: create stateN tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input", "state", "sr"},
		[]string{"output", "stateN"},
		[]ort.Value{inputTensor, stateTensor, srTensor},
		[]ort.Value{outputTensor, stateNTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		outputTensor.Destroy()
		stateNTensor.Destroy()
		return nil, fmt.Errorf("vad: load %s: %w", modelPath, err)
	}

	return &Detector{
		session:      session,
		inputTensor:  inputTensor,
		stateTensor:  stateTensor,
		srTensor:     srTensor,
		outputTensor: outputTensor,
		stateNTensor: stateNTensor,
		threshold:    DefaultThreshold,
	}, nil
}

// SetThreshold sets the speech-probability cutoff used by Detect.
// Out-of-[0,1] values are rejected rather than silently clamped.
func (d *Detector) SetThreshold(t float32) error {
	if t < 0 || t > 1 {
		return fmt.Errorf("vad: threshold %v out of range [0,1]: %w", t, verrors.ErrInvalidParam)
	}
	d.threshold = t
	return nil
}

// Reset zeroes the hidden state, starting a fresh utterance.
func (d *Detector) Reset() {
	clearFloat32(d.stateTensor.GetData())
}

// Close releases the detector's ONNX Runtime resources.
func (d *Detector) Close() error {
	d.session.Destroy()
	d.inputTensor.Destroy()
	d.stateTensor.Destroy()
	d.srTensor.Destroy()
	d.outputTensor.Destroy()
	d.stateNTensor.Destroy()
	return nil
}

// infer runs one 512-sample window through the model, advancing the
// pooled hidden state, and returns the speech probability.
func (d *Detector) infer(window []float32) (float32, error) {
	copy(d.inputTensor.GetData(), window)
	if err := d.session.Run(); err != nil {
		return 0, fmt.Errorf("vad: inference: %w", err)
	}
	prob := d.outputTensor.GetData()[0]
	copy(d.stateTensor.GetData(), d.stateNTensor.GetData())
	return prob, nil
}

// Detect runs the full start/merge/min-duration state machine over audio
// (16kHz mono) and returns the resulting speech segments. Resets hidden
// state at entry so repeated calls on the same Detector don't leak state
// between unrelated utterances.
func (d *Detector) Detect(audio []float32) ([]Segment, error) {
	d.Reset()

	minSilenceSamples := MinSilenceDurationMs * SampleRate / 1000
	minSpeechSamples := MinSpeechDurationMs * SampleRate / 1000

	var segments []Segment
	inSpeech := false
	speechStart := 0
	silenceCounter := 0
	var confidenceSum float32
	frameCount := 0

	for offset := 0; offset+WindowSize <= len(audio); offset += WindowSize {
		prob, err := d.infer(audio[offset : offset+WindowSize])
		if err != nil {
			return nil, err
		}
		current := offset

		if prob >= d.threshold {
			if !inSpeech {
				speechStart = current
				inSpeech = true
				confidenceSum = 0
				frameCount = 0
			}
			silenceCounter = 0
			confidenceSum += prob
			frameCount++
		} else if inSpeech {
			silenceCounter += WindowSize
			if silenceCounter >= minSilenceSamples {
				speechEnd := current - silenceCounter + WindowSize
				if speechEnd-speechStart >= minSpeechSamples {
					segments = append(segments, Segment{
						StartSample: speechStart,
						EndSample:   speechEnd,
						Confidence:  meanOrZero(confidenceSum, frameCount),
					})
				}
				inSpeech = false
				silenceCounter = 0
			}
		}
	}

	if inSpeech {
		speechEnd := len(audio)
		if speechEnd-speechStart >= minSpeechSamples {
			segments = append(segments, Segment{
				StartSample: speechStart,
				EndSample:   speechEnd,
				Confidence:  meanOrZero(confidenceSum, frameCount),
			})
		}
	}

	return mergeAdjacent(segments, minSilenceSamples), nil
}

// FilterSilence concatenates the detected speech spans of audio,
// discarding everything else.
func (d *Detector) FilterSilence(audio []float32) ([]float32, error) {
	segments, err := d.Detect(audio)
	if err != nil {
		return nil, err
	}
	var filtered []float32
	for _, seg := range segments {
		start, end := seg.StartSample, seg.EndSample
		if start < 0 {
			start = 0
		}
		if end > len(audio) {
			end = len(audio)
		}
		filtered = append(filtered, audio[start:end]...)
	}
	return filtered, nil
}

// SpeechDuration sums the duration, in seconds, of the given segments.
func SpeechDuration(segments []Segment, sampleRate int) float32 {
	var total float32
	for _, seg := range segments {
		total += float32(seg.EndSample-seg.StartSample) / float32(sampleRate)
	}
	return total
}

func meanOrZero(sum float32, n int) float32 {
	if n == 0 {
		return 0
	}
	return sum / float32(n)
}

func mergeAdjacent(segments []Segment, minSilenceSamples int) []Segment {
	if len(segments) <= 1 {
		return segments
	}
	merged := []Segment{segments[0]}
	for _, seg := range segments[1:] {
		last := &merged[len(merged)-1]
		gap := seg.StartSample - last.EndSample
		if gap < minSilenceSamples {
			last.EndSample = seg.EndSample
			last.Confidence = (last.Confidence + seg.Confidence) / 2.0
		} else {
			merged = append(merged, seg)
		}
	}
	return merged
}

func clearFloat32(s []float32) {
	for i := range s {
		s[i] = 0
	}
}
