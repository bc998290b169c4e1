package session

import "context"

// Transcriber turns captured audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Illustrator generates one square image for a text prompt.
type Illustrator interface {
	Illustrate(ctx context.Context, prompt string) ([]byte, error)
}

// ImageStore persists generated image bytes and returns where they were written.
type ImageStore interface {
	Save(ctx context.Context, data []byte) (string, error)
}

// Notifier receives the user-visible outcome of each controller operation.
// Calls are made while the Controller holds its lock, so events arrive in
// commit order. Implementations must be quick and must not call back into
// the Controller.
type Notifier interface {
	TranscriptReady(transcript string)
	ImageReady(path string)
	Failed(kind FailureKind, err error)
	Reset()
}

type nopNotifier struct{}

func (nopNotifier) TranscriptReady(string) {}
func (nopNotifier) ImageReady(string) {}
func (nopNotifier) Failed(FailureKind, error) {}
func (nopNotifier) Reset() {}

// Notifiers fans events out to several notifiers in order.
type Notifiers []Notifier

func (ns Notifiers) TranscriptReady(transcript string) {
	for _, n := range ns {
		n.TranscriptReady(transcript)
	}
}

func (ns Notifiers) ImageReady(path string) {
	for _, n := range ns {
		n.ImageReady(path)
	}
}

func (ns Notifiers) Failed(kind FailureKind, err error) {
	for _, n := range ns {
		n.Failed(kind, err)
	}
}

func (ns Notifiers) Reset() {
	for _, n := range ns {
		n.Reset()
	}
}
