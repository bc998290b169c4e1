package server

import (
	"path/filepath"
	"sync"

	"github.com/alkime/speakimage/internal/session"
)

// Message levels shown by the control panel.
const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Message is the latest user-visible outcome of a session operation.
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// messageFeed keeps the most recent controller event for display.
// It implements session.Notifier.
type messageFeed struct {
	mu   sync.Mutex
	last *Message
}

func (f *messageFeed) Last() (Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.last == nil {
		return Message{}, false //nolint:exhaustruct // empty when absent
	}

	return *f.last, true
}

func (f *messageFeed) set(m *Message) {
	f.mu.Lock()
	f.last = m
	f.mu.Unlock()
}

func (f *messageFeed) TranscriptReady(string) {
	f.set(&Message{Level: LevelInfo, Text: "Transcript ready. Review it, then generate your image."})
}

func (f *messageFeed) ImageReady(path string) {
	f.set(&Message{Level: LevelInfo, Text: "Image saved as " + filepath.Base(path)})
}

func (f *messageFeed) Failed(_ session.FailureKind, err error) {
	f.set(&Message{Level: LevelError, Text: err.Error()})
}

func (f *messageFeed) Reset() {
	f.set(nil)
}
