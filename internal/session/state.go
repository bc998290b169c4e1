package session

// State is a point-in-time copy of a session's flow state.
// An empty Transcript or ImagePath means the value is absent.
type State struct {
	Step           Step   `json:"step"`
	IsTranscribing bool   `json:"isTranscribing"`
	AudioConsumed  bool   `json:"audioConsumed"`
	Transcript     string `json:"transcript,omitempty"`
	ImagePath      string `json:"imagePath,omitempty"`
}

// HasTranscript reports whether a transcript is present.
func (s State) HasTranscript() bool {
	return s.Transcript != ""
}

// HasImage reports whether a generated image is present.
func (s State) HasImage() bool {
	return s.ImagePath != ""
}

// CanSubmitAudio reports whether an audio capture would currently be accepted.
// UIs use it to enable or disable their recording control.
func (s State) CanSubmitAudio() bool {
	return s.Step == StepAwaitingAudio && !s.AudioConsumed && !s.IsTranscribing
}

// CanRequestImage reports whether image generation may be requested.
func (s State) CanRequestImage() bool {
	return s.HasTranscript()
}
