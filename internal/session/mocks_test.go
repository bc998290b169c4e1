package session_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/alkime/speakimage/internal/session"
)

// mockTranscriber implements session.Transcriber for testing.
type mockTranscriber struct {
	result string
	err    error
	calls  atomic.Int32

	// release, when set, blocks Transcribe until it is closed.
	release chan struct{}
}

func (m *mockTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	m.calls.Add(1)
	if m.release != nil {
		<-m.release
	}

	return m.result, m.err
}

// mockIllustrator implements session.Illustrator for testing.
type mockIllustrator struct {
	result []byte
	err    error
	called bool
	prompt string

	// started receives once Illustrate is entered; release blocks it until closed.
	started chan struct{}
	release chan struct{}
}

func (m *mockIllustrator) Illustrate(_ context.Context, prompt string) ([]byte, error) {
	m.called = true
	m.prompt = prompt
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.release != nil {
		<-m.release
	}

	return m.result, m.err
}

// mockStore implements session.ImageStore without touching disk.
type mockStore struct {
	path  string
	err   error
	saved [][]byte
}

func (m *mockStore) Save(_ context.Context, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, data)

	return m.path, nil
}

// recordingNotifier captures every event the controller emits.
type recordingNotifier struct {
	mu          sync.Mutex
	transcripts []string
	images      []string
	failures    []session.FailureKind
	resets      int
}

func (r *recordingNotifier) TranscriptReady(transcript string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts = append(r.transcripts, transcript)
}

func (r *recordingNotifier) ImageReady(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images = append(r.images, path)
}

func (r *recordingNotifier) Failed(kind session.FailureKind, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, kind)
}

func (r *recordingNotifier) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

// gatedNotifier logs events in arrival order and holds TranscriptReady until
// release is closed.
type gatedNotifier struct {
	mu      sync.Mutex
	events  []string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedNotifier) record(event string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, event)
}

func (g *gatedNotifier) log() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]string(nil), g.events...)
}

func (g *gatedNotifier) TranscriptReady(string) {
	g.entered <- struct{}{}
	<-g.release
	g.record("transcript")
}

func (g *gatedNotifier) ImageReady(string)                  { g.record("image") }
func (g *gatedNotifier) Failed(session.FailureKind, error) { g.record("failed") }
func (g *gatedNotifier) Reset()                            { g.record("reset") }
