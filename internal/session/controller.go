// Package session implements the per-session flow controller that takes a
// recording to a transcript and a transcript to a generated image.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Controller owns one session's State and enforces the linear
// AwaitingAudio -> ShowingTranscript -> ShowingImage progression.
//
// The lock is never held while a collaborator is running. Reset bumps an
// epoch so that a call that was in flight when the session was reset cannot
// write its late result into the fresh state. Notifier events are sent under
// the lock so a Reset cannot slip between a commit and its event.
type Controller struct {
	transcriber Transcriber
	illustrator Illustrator
	store       ImageStore
	notifier    Notifier
	logger      *slog.Logger

	mu    sync.Mutex
	state State
	epoch uint64
	// inFlight survives Reset: only the returning Transcribe call clears it.
	inFlight bool
}

// NewController creates a controller in the initial AwaitingAudio step.
// notifier and logger may be nil.
func NewController(
	transcriber Transcriber,
	illustrator Illustrator,
	store ImageStore,
	notifier Notifier,
	logger *slog.Logger,
) *Controller {
	if notifier == nil {
		notifier = nopNotifier{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{ //nolint:exhaustruct // mu, state, epoch and inFlight start zeroed
		transcriber: transcriber,
		illustrator: illustrator,
		store:       store,
		notifier:    notifier,
		logger:      logger,
	}
}

// State returns a snapshot of the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// SubmitAudio transcribes one audio capture. It is accepted only while the
// session is awaiting audio, no earlier capture was consumed and no
// transcription is running. On success the session moves to
// StepShowingTranscript.
func (c *Controller) SubmitAudio(ctx context.Context, audio []byte) (State, error) {
	c.mu.Lock()
	switch {
	case c.inFlight || c.state.IsTranscribing:
		defer c.mu.Unlock()
		return c.state, ErrTranscriptionInFlight
	case c.state.AudioConsumed || c.state.Step != StepAwaitingAudio:
		defer c.mu.Unlock()
		return c.state, ErrAudioConsumed
	case len(audio) == 0:
		defer c.mu.Unlock()
		return c.state, ErrEmptyAudio
	}

	c.state.IsTranscribing = true
	c.inFlight = true
	epoch := c.epoch
	c.mu.Unlock()

	c.logger.Debug("Transcribing audio", "bytes", len(audio))

	text, err := c.transcriber.Transcribe(ctx, audio)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = ErrNoResult
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false
	if c.epoch != epoch {
		c.logger.Info("Discarding transcription result for reset session")
		return c.state, ErrSessionReset
	}

	c.state.IsTranscribing = false
	if err != nil {
		failure := &TranscriptionFailure{Err: err}
		c.logger.Error("Transcription failed", "error", err)
		c.notifier.Failed(FailureTranscription, failure)

		return c.state, failure
	}

	c.state.Transcript = text
	c.state.Step = StepShowingTranscript
	c.state.AudioConsumed = true

	c.logger.Info("Transcription complete", "chars", len(text))
	c.notifier.TranscriptReady(text)

	return c.state, nil
}

// RequestImage generates an image from the stored transcript and persists it.
// It requires a transcript; calling it again from StepShowingImage replaces
// the current image with a newly generated one.
func (c *Controller) RequestImage(ctx context.Context) (State, error) {
	c.mu.Lock()
	if !c.state.HasTranscript() {
		defer c.mu.Unlock()
		return c.state, ErrNoTranscript
	}

	prompt := c.state.Transcript
	epoch := c.epoch
	c.mu.Unlock()

	c.logger.Debug("Generating image", "prompt_chars", len(prompt))

	path, err := c.generate(ctx, prompt)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		c.logger.Info("Discarding generated image for reset session", "path", path)
		return c.state, ErrSessionReset
	}

	if err != nil {
		failure := &GenerationFailure{Err: err}
		c.logger.Error("Image generation failed", "error", err)
		c.notifier.Failed(FailureGeneration, failure)

		return c.state, failure
	}

	c.state.ImagePath = path
	c.state.Step = StepShowingImage

	c.logger.Info("Image generated", "path", path)
	c.notifier.ImageReady(path)

	return c.state, nil
}

func (c *Controller) generate(ctx context.Context, prompt string) (string, error) {
	data, err := c.illustrator.Illustrate(ctx, prompt)
	if err != nil {
		return "", err
	}

	return c.store.Save(ctx, data)
}

// Reset returns the session to its initial state. Previously saved images
// are left on disk.
func (c *Controller) Reset() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = State{} //nolint:exhaustruct // zero value is the initial state
	c.epoch++

	c.logger.Debug("Session reset")
	c.notifier.Reset()

	return c.state
}
