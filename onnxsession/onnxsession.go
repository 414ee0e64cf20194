// Package onnxsession wraps github.com/yalue/onnxruntime_go behind a
// generic "load a model, query its I/O shapes, run one float tensor"
// capability shared by every single-input/single-output model the
// analyzer and embedding extractor load (gender/age, emotion, antispoof,
// quality, language, speaker embedding).
package onnxsession

import (
	"fmt"
	"sync"

	"github.com/aurakit/voiceprint-go/verrors"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	initOnce sync.Once
	initErr  error
)

// InitEnvironment initializes the process-wide ONNX Runtime environment
// exactly once. libPath is the path to the onnxruntime shared library;
// pass "" to use the runtime's platform default search.
func InitEnvironment(libPath string) error {
	initOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	return initErr
}

// Session is a loaded ONNX model with a single float32 input and a single
// float32 output, run once per call with a caller-supplied shape (unlike
// vad.Detector, whose fixed-shape tensors are pooled across many calls per
// utterance).
type Session struct {
	session     *ort.DynamicAdvancedSession
	inputName   string
	outputName  string
	inputShape  []int64
	outputShape []int64
}

// Load reads an ONNX model from modelPath, discovers its first input/output
// names and shapes, and returns a ready-to-run Session. numThreads controls
// intra-op parallelism.
func Load(modelPath string, numThreads int) (*Session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnxsession: inspect %s: %w: %w", modelPath, verrors.ErrModelLoad, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("onnxsession: %s declares no input/output: %w", modelPath, verrors.ErrModelLoad)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnxsession: session options: %w: %w", verrors.ErrModelLoad, err)
	}
	defer opts.Destroy()
	if numThreads > 0 {
		_ = opts.SetIntraOpNumThreads(numThreads)
	}

	sess, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnxsession: load %s: %w: %w", modelPath, verrors.ErrModelLoad, err)
	}

	return &Session{
		session:     sess,
		inputName:   inputs[0].Name,
		outputName:  outputs[0].Name,
		inputShape:  inputs[0].Dimensions,
		outputShape: outputs[0].Dimensions,
	}, nil
}

// InputShape returns the model's declared input dimensions (symbolic/
// negative dims as reported by the model, e.g. -1 for a dynamic batch).
func (s *Session) InputShape() []int64 { return s.inputShape }

// OutputShape returns the model's declared output dimensions.
func (s *Session) OutputShape() []int64 { return s.outputShape }

// Run executes the model on data reshaped to shape and returns a copy of
// the flat output tensor's data, whatever its length.
func (s *Session) Run(data []float32, shape []int64) ([]float32, error) {
	input, err := ort.NewTensor(ort.NewShape(shape...), data)
	if err != nil {
		return nil, fmt.Errorf("onnxsession: build input tensor: %w: %w", verrors.ErrInference, err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("onnxsession: inference: %w: %w", verrors.ErrInference, err)
	}
	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		outputs[0].Destroy()
		return nil, fmt.Errorf("onnxsession: unexpected output tensor type: %w", verrors.ErrInference)
	}
	defer outTensor.Destroy()

	data2 := outTensor.GetData()
	out := make([]float32, len(data2))
	copy(out, data2)
	return out, nil
}

// Close releases the underlying ONNX Runtime session.
func (s *Session) Close() error {
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	return nil
}

// OutputLen multiplies the positive dimensions of shape, ignoring
// negative/symbolic entries — used by callers that need to size a
// destination buffer from a model's declared output shape.
func OutputLen(shape []int64) int {
	n := int64(1)
	for _, d := range shape {
		if d > 0 {
			n *= d
		}
	}
	return int(n)
}
