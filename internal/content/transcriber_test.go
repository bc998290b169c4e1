package content //nolint:testpackage // Needs access to unexported fields

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alkime/speakimage/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWAV(t *testing.T) []byte {
	t.Helper()

	samples := make([]int16, audio.DefaultSampleRate/2)
	for i := range samples {
		samples[i] = int16((i % 100) * 50)
	}

	wav, err := audio.EncodeWAV(audio.PCM{Samples: samples, SampleRate: audio.DefaultSampleRate})
	require.NoError(t, err)

	return wav
}

func TestNewTranscriber_Defaults(t *testing.T) {
	transcriber := NewTranscriber(TranscriberConfig{APIKey: "test-api-key"})

	assert.NotNil(t, transcriber)
	assert.Equal(t, "test-api-key", transcriber.apiKey)
	assert.Equal(t, "whisper-1", transcriber.model)
	assert.Empty(t, transcriber.language)
}

func TestTranscriber_Transcribe_MissingAPIKey(t *testing.T) {
	transcriber := NewTranscriber(TranscriberConfig{})

	text, err := transcriber.Transcribe(context.Background(), testWAV(t))

	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Contains(t, err.Error(), "API key")
	assert.Empty(t, text)
}

func TestTranscriber_Transcribe_InvalidAudio(t *testing.T) {
	transcriber := NewTranscriber(TranscriberConfig{APIKey: "test-key"})

	text, err := transcriber.Transcribe(context.Background(), []byte{0x01})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode audio")
	assert.Empty(t, text)
}

func TestTranscriber_Transcribe_SendsMP3(t *testing.T) {
	var (
		gotModel    string
		gotLanguage string
		gotFilename string
		gotSize     int64
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")

		file, header, err := r.FormFile("file")
		if err == nil {
			gotFilename = header.Filename
			gotSize = header.Size
			file.Close()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "a red bicycle"})
	}))
	defer server.Close()

	transcriber := NewTranscriber(TranscriberConfig{
		APIKey:   "test-key",
		Language: "en",
		BaseURL:  server.URL + "/",
	})

	text, err := transcriber.Transcribe(context.Background(), testWAV(t))
	require.NoError(t, err)

	assert.Equal(t, "a red bicycle", text)
	assert.Equal(t, "whisper-1", gotModel)
	assert.Equal(t, "en", gotLanguage)
	assert.Equal(t, "recording.mp3", gotFilename)
	assert.Positive(t, gotSize)
}

func TestTranscriber_Transcribe_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	// Skip - requires a real speech recording
	t.Skip("Requires valid speech audio - run manually with a real recording")
}
