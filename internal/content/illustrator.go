package content

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultImageSize is the square size requested when none is configured.
const DefaultImageSize = openai.CreateImageSize1024x1024

// gpt-image models always return base64 and reject response_format.
const gptImagePrefix = "gpt-image"

// IllustratorConfig configures the image generation client.
type IllustratorConfig struct {
	APIKey string
	Model  string
	Size   string
	// BaseURL overrides the API endpoint; empty uses the default.
	BaseURL string
}

// Illustrator generates one square image per prompt.
type Illustrator struct {
	apiKey  string
	model   string
	size    string
	baseURL string
	http    *http.Client
}

// NewIllustrator creates an image generation client. It fails if the
// configured size is not square.
func NewIllustrator(cfg IllustratorConfig) (*Illustrator, error) {
	size := cfg.Size
	if size == "" {
		size = DefaultImageSize
	}

	if err := ValidateSquareSize(size); err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE3
	}

	return &Illustrator{
		apiKey:  cfg.APIKey,
		model:   model,
		size:    size,
		baseURL: cfg.BaseURL,
		http:    http.DefaultClient,
	}, nil
}

// ValidateSquareSize checks that size is "<n>x<n>" with n > 0.
func ValidateSquareSize(size string) error {
	w, h, ok := strings.Cut(size, "x")
	if !ok {
		return fmt.Errorf("invalid image size %q: expected WIDTHxHEIGHT", size)
	}

	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return fmt.Errorf("invalid image width in %q", size)
	}

	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return fmt.Errorf("invalid image height in %q", size)
	}

	if width != height {
		return fmt.Errorf("image size %q is not square (1:1)", size)
	}

	return nil
}

// Illustrate requests exactly one image for prompt and returns its bytes.
func (il *Illustrator) Illustrate(ctx context.Context, prompt string) ([]byte, error) {
	if il.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt cannot be empty")
	}

	config := openai.DefaultConfig(il.apiKey)
	if il.baseURL != "" {
		config.BaseURL = il.baseURL
	}

	client := openai.NewClientWithConfig(config)

	req := openai.ImageRequest{ //nolint:exhaustruct // only the fields we set matter
		Prompt: prompt,
		Model:  il.model,
		N:      1,
		Size:   il.size,
	}
	if !strings.HasPrefix(il.model, gptImagePrefix) {
		req.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	resp, err := client.CreateImage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate image via OpenAI API: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("empty response from image API")
	}

	image := resp.Data[0]
	if image.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(image.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data: %w", err)
		}

		return data, nil
	}

	if image.URL != "" {
		return il.download(ctx, image.URL)
	}

	return nil, errors.New("image API returned neither data nor URL")
}

func (il *Illustrator) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image download request: %w", err)
	}

	resp, err := il.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}

	return data, nil
}
