// Package verrors defines the sentinel error taxonomy shared across the
// speaker-manager, analyzer and diarizer facades.
package verrors

import "errors"

// Code mirrors the integer error-code table exposed to callers that still
// want a stable numeric contract (e.g. a future C shim).
type Code int

const (
	CodeOK              Code = 0
	CodeUnknown         Code = -1
	CodeInvalidParam    Code = -2
	CodeNotInit         Code = -3
	CodeAlreadyInit     Code = -4
	CodeModelLoad       Code = -5
	CodeAudioTooShort   Code = -6
	CodeAudioInvalid    Code = -7
	CodeSpeakerExists   Code = -8
	CodeSpeakerNotFound Code = -9
	CodeDBError         Code = -10
	CodeFileNotFound    Code = -11
	CodeBufferTooSmall  Code = -12
	CodeNoMatch         Code = -13
	CodeWAVFormat       Code = -14
	CodeInference       Code = -15
	CodeModelNotAvail   Code = -16
	CodeAnalysisFailed  Code = -17
	CodeDiarizeFailed   Code = -18
)

// codedError pairs a sentinel error with its stable numeric code.
type codedError struct {
	code Code
	msg  string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() int     { return int(e.code) }

func newErr(code Code, msg string) error { return &codedError{code: code, msg: msg} }

var (
	ErrUnknown         = newErr(CodeUnknown, "unknown error")
	ErrInvalidParam    = newErr(CodeInvalidParam, "invalid parameter")
	ErrNotInit         = newErr(CodeNotInit, "not initialized")
	ErrAlreadyInit     = newErr(CodeAlreadyInit, "already initialized")
	ErrModelLoad       = newErr(CodeModelLoad, "failed to load model")
	ErrAudioTooShort   = newErr(CodeAudioTooShort, "audio too short (minimum 1.5s after VAD)")
	ErrAudioInvalid    = newErr(CodeAudioInvalid, "invalid audio data")
	ErrSpeakerExists   = newErr(CodeSpeakerExists, "speaker already exists")
	ErrSpeakerNotFound = newErr(CodeSpeakerNotFound, "speaker not found")
	ErrDBError         = newErr(CodeDBError, "database error")
	ErrFileNotFound    = newErr(CodeFileNotFound, "file not found")
	ErrBufferTooSmall  = newErr(CodeBufferTooSmall, "output buffer too small")
	ErrNoMatch         = newErr(CodeNoMatch, "no matching speaker found")
	ErrWAVFormat       = newErr(CodeWAVFormat, "invalid WAV format")
	ErrInference       = newErr(CodeInference, "model inference error")
	ErrModelNotAvail   = newErr(CodeModelNotAvail, "required model not available")
	ErrAnalysisFailed  = newErr(CodeAnalysisFailed, "analysis failed")
	ErrDiarizeFailed   = newErr(CodeDiarizeFailed, "diarization failed")
)

// ToCode extracts the stable numeric code from err, walking wrapped errors.
// Returns CodeUnknown if err is non-nil but carries no code, CodeOK if err
// is nil.
func ToCode(err error) Code {
	if err == nil {
		return CodeOK
	}
	var ce interface{ Code() int }
	if errors.As(err, &ce) {
		return Code(ce.Code())
	}
	return CodeUnknown
}
