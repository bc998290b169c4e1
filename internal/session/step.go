package session

import "fmt"

// Step is the stage of the speech-to-image flow a session is in.
type Step int

const (
	// StepAwaitingAudio is the initial step; the session accepts one audio capture.
	StepAwaitingAudio Step = iota
	// StepShowingTranscript means a transcript exists and an image may be requested.
	StepShowingTranscript
	// StepShowingImage means an image was generated from the transcript.
	StepShowingImage
)

// String returns the human-readable name of the step.
func (s Step) String() string {
	switch s {
	case StepAwaitingAudio:
		return "Awaiting Audio"
	case StepShowingTranscript:
		return "Showing Transcript"
	case StepShowingImage:
		return "Showing Image"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the step as a stable snake_case token for JSON payloads.
func (s Step) MarshalText() ([]byte, error) {
	switch s {
	case StepAwaitingAudio:
		return []byte("awaiting_audio"), nil
	case StepShowingTranscript:
		return []byte("showing_transcript"), nil
	case StepShowingImage:
		return []byte("showing_image"), nil
	default:
		return nil, fmt.Errorf("unknown step %d", int(s))
	}
}

// UnmarshalText decodes a token produced by MarshalText.
func (s *Step) UnmarshalText(text []byte) error {
	switch string(text) {
	case "awaiting_audio":
		*s = StepAwaitingAudio
	case "showing_transcript":
		*s = StepShowingTranscript
	case "showing_image":
		*s = StepShowingImage
	default:
		return fmt.Errorf("unknown step %q", string(text))
	}

	return nil
}
