// Package audio provides the L0 audio-normalisation layer: a hand-rolled
// RIFF/WAVE reader plus linear resampling to the 16kHz mono format every
// upstream model expects.
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/aurakit/voiceprint-go/verrors"
)

// TargetSampleRate is the sample rate every filterbank/model/VAD stage in
// this module operates at.
const TargetSampleRate = 16000

// Buffer is a mono PCM buffer with its originating sample rate.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the buffer's length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Normalize resamples b to TargetSampleRate if needed and returns the
// result; b itself is left untouched.
func (b Buffer) Normalize() Buffer {
	if b.SampleRate == TargetSampleRate {
		return b
	}
	return Buffer{
		Samples:    Resample(b.Samples, b.SampleRate, TargetSampleRate),
		SampleRate: TargetSampleRate,
	}
}

// Resample performs linear interpolation resampling from srcRate to
// dstRate. Returns input unchanged when the rates already match.
func Resample(input []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(input) == 0 {
		return input
	}
	ratio := float64(dstRate) / float64(srcRate)
	outLen := int(math.Ceil(float64(len(input)) * ratio))
	out := make([]float32, outLen)
	for i := 0; i < outLen; i++ {
		srcPos := float64(i) / ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)
		switch {
		case idx+1 < len(input):
			out[i] = float32(float64(input[idx])*(1-frac) + float64(input[idx+1])*frac)
		case idx < len(input):
			out[i] = input[idx]
		default:
			out[i] = 0
		}
	}
	return out
}

// wav format tags accepted by ReadWAV.
const (
	formatPCM   = 1
	formatFloat = 3
)

// ReadWAV parses a RIFF/WAVE file, converts it to mono float32 in [-1, 1],
// and returns it with its native sample rate (not yet resampled to 16kHz —
// call Normalize for that). Accepts 8/16-bit integer PCM and 32-bit IEEE
// float, mono or multi-channel (extra channels beyond stereo are dropped,
// keeping only channel 0; stereo is averaged).
//
// go-audio/wav's decoder assumes integer PCM container formats and cannot
// be driven through the IEEE-float (format tag 3) or 8-bit PCM paths this
// function needs, so the RIFF chunk walk is done by hand here instead.
func ReadWAV(path string) (Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("audio: open %s: %w: %w", path, verrors.ErrFileNotFound, err)
	}
	return DecodeWAV(data)
}

// DecodeWAV parses RIFF/WAVE bytes already resident in memory.
func DecodeWAV(data []byte) (Buffer, error) {
	r := bytes.NewReader(data)

	var riffTag [4]byte
	if err := binary.Read(r, binary.LittleEndian, &riffTag); err != nil || string(riffTag[:]) != "RIFF" {
		return Buffer{}, fmt.Errorf("audio: not a valid RIFF file: %w", verrors.ErrWAVFormat)
	}
	var fileSize uint32
	if err := binary.Read(r, binary.LittleEndian, &fileSize); err != nil {
		return Buffer{}, fmt.Errorf("audio: truncated RIFF header: %w", verrors.ErrWAVFormat)
	}
	var waveTag [4]byte
	if err := binary.Read(r, binary.LittleEndian, &waveTag); err != nil || string(waveTag[:]) != "WAVE" {
		return Buffer{}, fmt.Errorf("audio: not a valid WAVE file: %w", verrors.ErrWAVFormat)
	}

	var audioFormat, numChannels, bitsPerSample uint16
	var sampleRate uint32
	var audioData []byte

	for {
		var chunkID [4]byte
		var chunkSize uint32
		if err := binary.Read(r, binary.LittleEndian, &chunkID); err != nil {
			break
		}
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			break
		}
		switch string(chunkID[:]) {
		case "fmt ":
			fmtBody := make([]byte, chunkSize)
			if _, err := r.Read(fmtBody); err != nil {
				return Buffer{}, fmt.Errorf("audio: truncated fmt chunk: %w: %w", verrors.ErrWAVFormat, err)
			}
			fr := bytes.NewReader(fmtBody)
			binary.Read(fr, binary.LittleEndian, &audioFormat)
			binary.Read(fr, binary.LittleEndian, &numChannels)
			binary.Read(fr, binary.LittleEndian, &sampleRate)
			fr.Seek(6, 1) // byte_rate(4) + block_align(2)
			binary.Read(fr, binary.LittleEndian, &bitsPerSample)
		case "data":
			audioData = make([]byte, chunkSize)
			if _, err := r.Read(audioData); err != nil {
				return Buffer{}, fmt.Errorf("audio: truncated data chunk: %w: %w", verrors.ErrWAVFormat, err)
			}
		default:
			if _, err := r.Seek(int64(chunkSize), 1); err != nil {
				break
			}
		}
		if chunkSize%2 == 1 {
			r.Seek(1, 1) // chunks are word-aligned
		}
		if audioData != nil {
			break
		}
	}

	if len(audioData) == 0 {
		return Buffer{}, fmt.Errorf("audio: no audio data found in WAV file: %w", verrors.ErrWAVFormat)
	}
	if audioFormat != formatPCM && audioFormat != formatFloat {
		return Buffer{}, fmt.Errorf("audio: unsupported audio format %d (only PCM=1 and IEEE float=3 supported): %w", audioFormat, verrors.ErrWAVFormat)
	}

	var samples []float32
	switch {
	case audioFormat == formatPCM && bitsPerSample == 16:
		n := len(audioData) / 2
		samples = make([]float32, n)
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(audioData[i*2:]))
			samples[i] = float32(v) / 32768.0
		}
	case audioFormat == formatPCM && bitsPerSample == 8:
		n := len(audioData)
		samples = make([]float32, n)
		for i := 0; i < n; i++ {
			samples[i] = (float32(audioData[i]) - 128.0) / 128.0
		}
	case audioFormat == formatFloat && bitsPerSample == 32:
		n := len(audioData) / 4
		samples = make([]float32, n)
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(audioData[i*4:])
			samples[i] = math.Float32frombits(bits)
		}
	default:
		return Buffer{}, fmt.Errorf("audio: unsupported bit depth %d: %w", bitsPerSample, verrors.ErrWAVFormat)
	}

	if numChannels == 2 {
		mono := make([]float32, len(samples)/2)
		for i := range mono {
			mono[i] = (samples[i*2] + samples[i*2+1]) * 0.5
		}
		samples = mono
	} else if numChannels > 2 {
		mono := make([]float32, len(samples)/int(numChannels))
		for i := range mono {
			mono[i] = samples[i*int(numChannels)]
		}
		samples = mono
	}

	return Buffer{Samples: samples, SampleRate: int(sampleRate)}, nil
}
