// Package content wraps the OpenAI speech-to-text and image APIs.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/alkime/speakimage/internal/audio"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrMissingAPIKey is returned by collaborators constructed without a key.
var ErrMissingAPIKey = errors.New(
	"API key required: set OPENAI_API_KEY or run 'speakimage config set-key openai <key>'",
)

// TranscriberConfig configures the Whisper transcription client.
type TranscriberConfig struct {
	APIKey   string
	Model    string
	Language string
	// BaseURL overrides the API endpoint; empty uses the default.
	BaseURL string
}

// Transcriber handles Whisper API transcription requests.
type Transcriber struct {
	apiKey   string
	model    string
	language string
	baseURL  string
}

// NewTranscriber creates a new transcription client.
func NewTranscriber(cfg TranscriberConfig) *Transcriber {
	model := cfg.Model
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}

	return &Transcriber{
		apiKey:   cfg.APIKey,
		model:    model,
		language: cfg.Language,
		baseURL:  cfg.BaseURL,
	}
}

// Transcribe decodes captured audio (WAV or raw 48 kHz PCM), encodes it as
// MP3 and sends it to the Whisper API. An empty string means nothing was
// recognized.
func (t *Transcriber) Transcribe(ctx context.Context, audioData []byte) (string, error) {
	if t.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	pcm, err := audio.Normalize(audioData)
	if err != nil {
		return "", fmt.Errorf("failed to decode audio: %w", err)
	}

	var mp3 bytes.Buffer
	if err := audio.EncodeMP3(pcm, &mp3); err != nil {
		return "", err
	}

	opts := []option.RequestOption{option.WithAPIKey(t.apiKey)}
	if t.baseURL != "" {
		opts = append(opts, option.WithBaseURL(t.baseURL))
	}

	client := openai.NewClient(opts...)

	params := openai.AudioTranscriptionNewParams{ //nolint:exhaustruct // optional fields left unset
		File:  openai.File(bytes.NewReader(mp3.Bytes()), "recording.mp3", "audio/mpeg"),
		Model: openai.AudioModel(t.model),
	}
	if t.language != "" {
		params.Language = openai.String(t.language)
	}

	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	return resp.Text, nil
}
