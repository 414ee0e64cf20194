// Package embedding implements the L2 layer's speaker embedding
// extractor: VAD-filtered audio through the mel filterbank into an
// ECAPA-TDNN-style ONNX model, producing an L2-normalized fixed-dimension
// speaker vector.
package embedding

import (
	"fmt"
	"math"

	"github.com/aurakit/voiceprint-go/audio"
	"github.com/aurakit/voiceprint-go/fbank"
	"github.com/aurakit/voiceprint-go/onnxsession"
	"github.com/aurakit/voiceprint-go/vad"
	"github.com/aurakit/voiceprint-go/verrors"
)

// MinSpeechDurationSec is the shortest post-VAD speech duration an
// utterance may have and still yield an embedding.
const MinSpeechDurationSec = 1.5

// DefaultDim is the embedding width assumed when a loaded model's declared
// output shape doesn't resolve one (rank <1, or all-symbolic dims).
const DefaultDim = 192

// Extractor turns raw PCM into an L2-normalized speaker embedding.
type Extractor struct {
	fbank     *fbank.Extractor
	model     *onnxsession.Session
	detector  *vad.Detector
	dim       int
}

// New builds an Extractor from a loaded speaker-embedding ONNX session and
// a loaded VAD detector. The embedding dimension is read from the model's
// declared output shape, falling back to DefaultDim.
func New(model *onnxsession.Session, detector *vad.Detector) *Extractor {
	dim := DefaultDim
	if shape := model.OutputShape(); len(shape) > 0 {
		if d := onnxsession.OutputLen(shape); d > 1 {
			dim = d
		}
	}
	return &Extractor{
		fbank:    fbank.NewExtractor(fbank.Default()),
		model:    model,
		detector: detector,
		dim:      dim,
	}
}

// Dim returns the embedding vector length this extractor produces.
func (e *Extractor) Dim() int { return e.dim }

// Extract resamples audio to 16kHz if needed, filters it down to speech
// with VAD (falling back to the full buffer if VAD finds nothing),
// rejects anything shorter than MinSpeechDurationSec, and runs the
// remainder through the filterbank and embedding model.
func (e *Extractor) Extract(buf audio.Buffer) ([]float32, error) {
	norm := buf.Normalize()

	speech, err := e.detector.FilterSilence(norm.Samples)
	if err != nil {
		return nil, fmt.Errorf("embedding: vad: %w", err)
	}
	if len(speech) == 0 {
		speech = norm.Samples
	}

	durationSec := float32(len(speech)) / float32(audio.TargetSampleRate)
	if durationSec < MinSpeechDurationSec {
		return nil, fmt.Errorf("embedding: speech too short: %.2fs (minimum %.1fs): %w", durationSec, MinSpeechDurationSec, verrors.ErrAudioTooShort)
	}

	frames := e.fbank.Extract(speech)
	if frames.Frames == 0 {
		return nil, fmt.Errorf("embedding: filterbank extraction produced no frames")
	}

	shape := []int64{1, int64(frames.Frames), int64(frames.Bins)}
	out, err := e.model.Run(frames.Data, shape)
	if err != nil {
		return nil, fmt.Errorf("embedding: inference: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("embedding: model produced empty output: %w", verrors.ErrInference)
	}

	L2Normalize(out)
	return out, nil
}

// ExtractFile reads wavPath and extracts its speaker embedding.
func (e *Extractor) ExtractFile(wavPath string) ([]float32, error) {
	buf, err := audio.ReadWAV(wavPath)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	return e.Extract(buf)
}

// L2Normalize scales vec in place to unit L2 norm. Leaves vec unchanged if
// its norm is below 1e-10 (effectively the zero vector).
func L2Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm > 1e-10 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
}
