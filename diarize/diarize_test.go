package diarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Diarizer's exported surface (New, Diarize, DiarizeFile) all require a
// loaded VAD and embedding ONNX session, so it has no pure logic worth
// unit-testing in isolation beyond the constant below; the VAD, embedding,
// and cluster packages each carry their own model-free unit tests for the
// stages Diarize composes.
func TestMinSegmentDurationSec_IsPositiveAndSubSecond(t *testing.T) {
	assert.Greater(t, MinSegmentDurationSec, float32(0))
	assert.Less(t, MinSegmentDurationSec, float32(1))
}
