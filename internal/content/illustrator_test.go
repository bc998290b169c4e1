package content //nolint:testpackage // Needs access to unexported fields

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIllustrator_Defaults(t *testing.T) {
	il, err := NewIllustrator(IllustratorConfig{APIKey: "test-key"})
	require.NoError(t, err)

	assert.Equal(t, "dall-e-3", il.model)
	assert.Equal(t, "1024x1024", il.size)
}

func TestValidateSquareSize(t *testing.T) {
	tests := []struct {
		size        string
		expectError string
	}{
		{size: "1024x1024"},
		{size: "512x512"},
		{size: "1792x1024", expectError: "not square"},
		{size: "1024", expectError: "expected WIDTHxHEIGHT"},
		{size: "ax1024", expectError: "invalid image width"},
		{size: "1024x0", expectError: "invalid image height"},
	}

	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			err := ValidateSquareSize(tt.size)
			if tt.expectError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestNewIllustrator_RejectsNonSquare(t *testing.T) {
	_, err := NewIllustrator(IllustratorConfig{APIKey: "k", Size: "1792x1024"})
	assert.Error(t, err)
}

func TestIllustrator_Illustrate_Validation(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		il, err := NewIllustrator(IllustratorConfig{})
		require.NoError(t, err)

		data, err := il.Illustrate(context.Background(), "a red bicycle")
		assert.ErrorIs(t, err, ErrMissingAPIKey)
		assert.Nil(t, data)
	})

	t.Run("blank prompt", func(t *testing.T) {
		il, err := NewIllustrator(IllustratorConfig{APIKey: "k"})
		require.NoError(t, err)

		data, err := il.Illustrate(context.Background(), "   ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prompt cannot be empty")
		assert.Nil(t, data)
	})
}

// imageRequest mirrors the fields of the images API request body we assert on.
type imageRequest struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

func TestIllustrator_Illustrate_Base64(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nimage")
	var got imageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"b64_json":"` + base64.StdEncoding.EncodeToString(png) + `"}]}`))
	}))
	defer server.Close()

	il, err := NewIllustrator(IllustratorConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	data, err := il.Illustrate(context.Background(), "a red bicycle")
	require.NoError(t, err)

	assert.Equal(t, png, data)
	assert.Equal(t, imageRequest{
		Prompt:         "a red bicycle",
		Model:          "dall-e-3",
		N:              1,
		Size:           "1024x1024",
		ResponseFormat: "b64_json",
	}, got)
}

func TestIllustrator_Illustrate_GPTImageOmitsResponseFormat(t *testing.T) {
	var got imageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"b64_json":"aW1n"}]}`))
	}))
	defer server.Close()

	il, err := NewIllustrator(IllustratorConfig{APIKey: "k", Model: "gpt-image-1", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	data, err := il.Illustrate(context.Background(), "a red bicycle")
	require.NoError(t, err)

	assert.Equal(t, []byte("img"), data)
	assert.Empty(t, got.ResponseFormat)
	assert.Equal(t, "gpt-image-1", got.Model)
}

func TestIllustrator_Illustrate_DownloadsURL(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"` + server.URL + `/files/image.png"}]}`))
	})
	mux.HandleFunc("/files/image.png", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("downloaded"))
	})

	il, err := NewIllustrator(IllustratorConfig{APIKey: "k", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	data, err := il.Illustrate(context.Background(), "a red bicycle")
	require.NoError(t, err)
	assert.Equal(t, []byte("downloaded"), data)
}

func TestIllustrator_Illustrate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"content policy violation","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	il, err := NewIllustrator(IllustratorConfig{APIKey: "k", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	data, err := il.Illustrate(context.Background(), "a red bicycle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content policy violation")
	assert.Nil(t, data)
}

func TestIllustrator_Illustrate_EmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	}))
	defer server.Close()

	il, err := NewIllustrator(IllustratorConfig{APIKey: "k", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	_, err = il.Illustrate(context.Background(), "a red bicycle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}
