package session

import "errors"

// Rejections. These are returned before any collaborator is called and never
// change session state.
var (
	ErrEmptyAudio            = errors.New("audio is empty")
	ErrAudioConsumed         = errors.New("audio already transcribed, start over to record again")
	ErrTranscriptionInFlight = errors.New("transcription already in progress")
	ErrNoTranscript          = errors.New("no transcript to generate an image from")
)

var (
	// ErrTranscriptionFailed matches every *TranscriptionFailure.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrGenerationFailed matches every *GenerationFailure.
	ErrGenerationFailed = errors.New("image generation failed")
	// ErrNoResult is the cause of a TranscriptionFailure when the transcriber
	// returned nothing usable.
	ErrNoResult = errors.New("no speech recognized")
	// ErrSessionReset is returned when the session was reset while a
	// collaborator call was in flight; the late result is discarded.
	ErrSessionReset = errors.New("session was reset while the request was in flight")
)

// FailureKind names the collaborator whose call failed.
type FailureKind string

const (
	FailureTranscription FailureKind = "transcription"
	FailureGeneration    FailureKind = "generation"
)

// TranscriptionFailure wraps a transcriber error or an empty result.
type TranscriptionFailure struct {
	Err error
}

func (f *TranscriptionFailure) Error() string {
	return "transcription error: " + f.Err.Error()
}

func (f *TranscriptionFailure) Unwrap() []error {
	return []error{ErrTranscriptionFailed, f.Err}
}

// GenerationFailure wraps an image generation or persistence error.
type GenerationFailure struct {
	Err error
}

func (f *GenerationFailure) Error() string {
	return "image generation error: " + f.Err.Error()
}

func (f *GenerationFailure) Unwrap() []error {
	return []error{ErrGenerationFailed, f.Err}
}

// IsRejection reports whether err is a precondition rejection rather than a
// collaborator failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrEmptyAudio) ||
		errors.Is(err, ErrAudioConsumed) ||
		errors.Is(err, ErrTranscriptionInFlight) ||
		errors.Is(err, ErrNoTranscript)
}
