package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alkime/speakimage/internal/config"
	"github.com/alkime/speakimage/internal/imagestore"
	"github.com/alkime/speakimage/internal/server"
	"github.com/alkime/speakimage/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake image body")

type fakeTranscriber struct {
	text  string
	err   atomic.Pointer[error]
	calls atomic.Int32
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	f.calls.Add(1)
	if errp := f.err.Load(); errp != nil {
		return "", *errp
	}
	return f.text, nil
}

func (f *fakeTranscriber) fail(err error) {
	if err == nil {
		f.err.Store(nil)
		return
	}
	f.err.Store(&err)
}

type fakeIllustrator struct {
	err    error
	prompt atomic.Pointer[string]
}

func (f *fakeIllustrator) Illustrate(_ context.Context, prompt string) ([]byte, error) {
	f.prompt.Store(&prompt)
	if f.err != nil {
		return nil, f.err
	}
	return pngBytes, nil
}

type sessionBody struct {
	State   session.State `json:"state"`
	Message *struct {
		Level string `json:"level"`
		Text  string `json:"text"`
	} `json:"message"`
	Error string `json:"error"`
}

// client replays the session cookie like a browser would.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func (cl *client) do(method, path string, body []byte) *httptest.ResponseRecorder {
	cl.t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	cl.handler.ServeHTTP(w, req)

	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		cl.cookies = cookies
	}

	return w
}

func (cl *client) session(method, path string, body []byte) (int, sessionBody) {
	cl.t.Helper()

	w := cl.do(method, path, body)

	var resp sessionBody
	require.NoError(cl.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())

	return w.Code, resp
}

func testConfig() *config.Config {
	return &config.Config{
		Env:           "test",
		Port:          "8080",
		HSTSMaxAge:    31536000,
		CSPMode:       "relaxed",
		LogLevel:      "info",
		ImageDir:      "unused",
		SampleRate:    48000,
		MaxAudioBytes: 1 << 20,
		SessionTTL:    time.Hour,
	}
}

func testLogger() *slog.Logger {
	// Only show errors during tests
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:       slog.LevelError,
		AddSource:   false,
		ReplaceAttr: nil,
	}))
}

type fixture struct {
	srv         *server.Server
	transcriber *fakeTranscriber
	illustrator *fakeIllustrator
	dir         string
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()

	dir := t.TempDir()
	f := &fixture{
		transcriber: &fakeTranscriber{text: "  a red bicycle on the moon \n"},
		illustrator: &fakeIllustrator{},
		dir:         dir,
	}
	f.srv = server.New(cfg, testLogger(), server.Deps{
		Transcriber: f.transcriber,
		Illustrator: f.illustrator,
		Store:       imagestore.NewLocalStore(dir, testLogger()),
	})

	return f
}

func (f *fixture) client(t *testing.T) *client {
	return &client{t: t, handler: f.srv.Router(), cookies: nil}
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	f.srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Health endpoint should return 200 OK")
	assert.Contains(t, w.Body.String(), "healthy", "Response should contain 'healthy'")
	assert.Contains(t, w.Body.String(), "speakimage", "Response should contain service name 'speakimage'")
}

func TestSecurityHeaders(t *testing.T) {
	f := newFixture(t, testConfig())

	w := f.client(t).do(http.MethodGet, "/health", nil)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "media-src 'self' blob:")
}

func TestSessionFlow(t *testing.T) {
	f := newFixture(t, testConfig())
	cl := f.client(t)

	code, resp := cl.session(http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, session.StepAwaitingAudio, resp.State.Step)
	require.NotEmpty(t, cl.cookies, "session cookie should be issued")
	assert.Equal(t, server.SessionCookie, cl.cookies[0].Name)

	code, resp = cl.session(http.MethodPost, "/api/session/audio", []byte("RIFF....WAVE"))
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, session.StepShowingTranscript, resp.State.Step)
	assert.Equal(t, "a red bicycle on the moon", resp.State.Transcript)
	assert.True(t, resp.State.AudioConsumed)
	require.NotNil(t, resp.Message)
	assert.Equal(t, server.LevelInfo, resp.Message.Level)

	code, resp = cl.session(http.MethodPost, "/api/session/audio", []byte("again"))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, session.ErrAudioConsumed.Error(), resp.Error)
	assert.Equal(t, int32(1), f.transcriber.calls.Load())

	code, resp = cl.session(http.MethodPost, "/api/session/image", nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, session.StepShowingImage, resp.State.Step)
	assert.Equal(t, f.dir, filepath.Dir(resp.State.ImagePath))
	assert.Equal(t, "a red bicycle on the moon", *f.illustrator.prompt.Load())

	w := cl.do(http.MethodGet, "/api/session/image", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, w.Body.Bytes())

	w = cl.do(http.MethodGet, "/api/session/image?download=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	disposition := w.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, filepath.Base(resp.State.ImagePath))

	code, resp = cl.session(http.MethodPost, "/api/session/reset", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, session.State{}, resp.State) //nolint:exhaustruct // initial state
	assert.Nil(t, resp.Message)

	w = cl.do(http.MethodGet, "/api/session/image", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Image files survive a reset.
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSubmitAudio_Empty(t *testing.T) {
	f := newFixture(t, testConfig())

	code, resp := f.client(t).session(http.MethodPost, "/api/session/audio", nil)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, session.StepAwaitingAudio, resp.State.Step)
	assert.False(t, resp.State.AudioConsumed)
	assert.Zero(t, f.transcriber.calls.Load())
}

func TestSubmitAudio_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAudioBytes = 8
	f := newFixture(t, cfg)

	w := f.client(t).do(http.MethodPost, "/api/session/audio", make([]byte, 16))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Zero(t, f.transcriber.calls.Load())
}

func TestSubmitAudio_TranscriptionFailureThenRetry(t *testing.T) {
	f := newFixture(t, testConfig())
	cl := f.client(t)

	f.transcriber.fail(errors.New("speech service unavailable"))

	code, resp := cl.session(http.MethodPost, "/api/session/audio", []byte("audio"))
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, resp.Error, "speech service unavailable")
	assert.Equal(t, session.StepAwaitingAudio, resp.State.Step)
	assert.False(t, resp.State.IsTranscribing)
	require.NotNil(t, resp.Message)
	assert.Equal(t, server.LevelError, resp.Message.Level)

	f.transcriber.fail(nil)

	code, resp = cl.session(http.MethodPost, "/api/session/audio", []byte("audio"))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, session.StepShowingTranscript, resp.State.Step)
}

func TestRequestImage_NoTranscript(t *testing.T) {
	f := newFixture(t, testConfig())

	code, resp := f.client(t).session(http.MethodPost, "/api/session/image", nil)

	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, session.ErrNoTranscript.Error(), resp.Error)
	assert.Nil(t, f.illustrator.prompt.Load())
}

func TestRequestImage_GenerationFailure(t *testing.T) {
	f := newFixture(t, testConfig())
	f.illustrator.err = errors.New("content policy violation")
	cl := f.client(t)

	code, _ := cl.session(http.MethodPost, "/api/session/audio", []byte("audio"))
	require.Equal(t, http.StatusOK, code)

	code, resp := cl.session(http.MethodPost, "/api/session/image", nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, resp.Error, "content policy violation")
	assert.Equal(t, session.StepShowingTranscript, resp.State.Step)
	assert.Empty(t, resp.State.ImagePath)
}

func TestGetImage_FileRemoved(t *testing.T) {
	f := newFixture(t, testConfig())
	cl := f.client(t)

	cl.session(http.MethodPost, "/api/session/audio", []byte("audio"))
	_, resp := cl.session(http.MethodPost, "/api/session/image", nil)
	require.NotEmpty(t, resp.State.ImagePath)
	require.NoError(t, os.Remove(resp.State.ImagePath))

	w := cl.do(http.MethodGet, "/api/session/image", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionsAreIsolated(t *testing.T) {
	f := newFixture(t, testConfig())
	alice := f.client(t)
	bob := f.client(t)

	code, _ := alice.session(http.MethodPost, "/api/session/audio", []byte("audio"))
	require.Equal(t, http.StatusOK, code)

	_, resp := bob.session(http.MethodGet, "/api/session", nil)
	assert.Equal(t, session.StepAwaitingAudio, resp.State.Step)
	assert.Empty(t, resp.State.Transcript)
	assert.Equal(t, 2, f.srv.Sessions().Len())
}

func TestStaticControlPanel(t *testing.T) {
	f := newFixture(t, testConfig())
	cl := f.client(t)

	w := cl.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Speech to Image Generator")

	w = cl.do(http.MethodGet, "/app.js", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = cl.do(http.MethodGet, "/missing.txt", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, testConfig())
	cl := f.client(t)

	cl.do(http.MethodGet, "/health", nil)
	w := cl.do(http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "speakimage_http_requests_total")
	assert.Contains(t, w.Body.String(), "speakimage_active_sessions")
}
