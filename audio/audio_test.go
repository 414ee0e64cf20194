package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/aurakit/voiceprint-go/verrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPCM16WAV assembles a minimal mono 16-bit PCM RIFF/WAVE file in
// memory for ReadWAV/DecodeWAV to parse.
func buildPCM16WAV(samples []int16, sampleRate uint32) []byte {
	var buf bytes.Buffer
	dataBytes := len(samples) * 2

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataBytes))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, sampleRate)
	binary.Write(&buf, binary.LittleEndian, sampleRate*2) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))    // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))   // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataBytes))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

func TestDecodeWAV_PCM16Mono(t *testing.T) {
	samples := []int16{0, 16384, -16384, 32767, -32768}
	data := buildPCM16WAV(samples, 16000)

	buf, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.Equal(t, 16000, buf.SampleRate)
	require.Len(t, buf.Samples, len(samples))
	assert.InDelta(t, 0.5, buf.Samples[1], 1e-4)
	assert.InDelta(t, -0.5, buf.Samples[2], 1e-4)
}

func TestDecodeWAV_RejectsNonRIFF(t *testing.T) {
	_, err := DecodeWAV([]byte("not a wav file at all"))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, verrors.ErrWAVFormat))
}

func TestReadWAV_MissingFileReturnsFileNotFound(t *testing.T) {
	_, err := ReadWAV("/nonexistent/path/does-not-exist.wav")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, verrors.ErrFileNotFound))
}

func TestResample_SameRateIsNoOp(t *testing.T) {
	in := []float32{1, 2, 3}
	out := Resample(in, 16000, 16000)
	assert.Equal(t, in, out)
}

func TestResample_Upsamples(t *testing.T) {
	in := []float32{0, 1, 0, -1}
	out := Resample(in, 8000, 16000)
	assert.Equal(t, 8, len(out))
}

func TestBuffer_Normalize_ResamplesToTarget(t *testing.T) {
	b := Buffer{Samples: make([]float32, 8000), SampleRate: 8000}
	norm := b.Normalize()
	assert.Equal(t, TargetSampleRate, norm.SampleRate)
	assert.Equal(t, 16000, len(norm.Samples))
}

func TestBuffer_Duration(t *testing.T) {
	b := Buffer{Samples: make([]float32, 32000), SampleRate: 16000}
	assert.InDelta(t, 2.0, b.Duration(), 1e-9)
}

func TestDecodeWAV_IEEEFloat32(t *testing.T) {
	var buf bytes.Buffer
	samples := []float32{0.25, -0.5, 1.0}
	dataBytes := len(samples) * 4

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataBytes))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(3)) // IEEE float
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(16000))
	binary.Write(&buf, binary.LittleEndian, uint32(16000*4))
	binary.Write(&buf, binary.LittleEndian, uint16(4))
	binary.Write(&buf, binary.LittleEndian, uint16(32))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataBytes))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, math.Float32bits(s))
	}

	decoded, err := DecodeWAV(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, decoded.Samples, 3)
	assert.InDelta(t, 0.25, decoded.Samples[0], 1e-6)
	assert.InDelta(t, -0.5, decoded.Samples[1], 1e-6)
}
