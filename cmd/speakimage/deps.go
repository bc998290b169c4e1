package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alkime/speakimage/internal/audio"
	"github.com/alkime/speakimage/internal/config"
	"github.com/alkime/speakimage/internal/content"
	"github.com/alkime/speakimage/internal/imagestore"
	"github.com/alkime/speakimage/internal/server"
	"github.com/alkime/speakimage/internal/session"
)

// buildDeps prepares the output directory and creates the collaborators
// shared by both front-ends.
func buildDeps(ctx context.Context, cfg *config.Config, apiKey string, log *slog.Logger) (server.Deps, error) {
	if err := imagestore.Prep(cfg.ImageDir); err != nil {
		return server.Deps{}, fmt.Errorf("failed to prepare image directory: %w", err)
	}

	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		return server.Deps{}, err
	}

	transcriber := content.NewTranscriber(content.TranscriberConfig{
		APIKey:   apiKey,
		Model:    cfg.TranscribeModel,
		Language: cfg.TranscribeLanguage,
		BaseURL:  cfg.OpenAIBaseURL,
	})

	illustrator, err := content.NewIllustrator(content.IllustratorConfig{
		APIKey:  apiKey,
		Model:   cfg.ImageModel,
		Size:    cfg.ImageSize,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		return server.Deps{}, fmt.Errorf("failed to create image client: %w", err)
	}

	return server.Deps{
		Transcriber: transcriber,
		Illustrator: illustrator,
		Store:       store,
	}, nil
}

func buildStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (session.ImageStore, error) {
	local := imagestore.NewLocalStore(cfg.ImageDir, log)

	s3cfg := imagestore.S3Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		UseSSL:    cfg.S3.UseSSL,
		Prefix:    cfg.S3.Prefix,
	}
	if !s3cfg.Enabled() {
		return local, nil
	}

	uploader, err := imagestore.NewS3Uploader(ctx, s3cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 mirror: %w", err)
	}

	log.Info("Mirroring images to S3", "endpoint", s3cfg.Endpoint, "bucket", s3cfg.Bucket)

	return imagestore.NewMirrorStore(local, uploader, s3cfg.Prefix, log), nil
}

// recordLogger logs to path as text, or nowhere when path is empty.
func recordLogger(path string, level slog.Level) (*slog.Logger, func(), error) {
	if path == "" {
		log := slog.New(slog.DiscardHandler)
		slog.SetDefault(log)
		return log, func() {}, nil
	}

	//nolint:gosec // Log files need to be readable
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	log := newTextLogger(f, level)
	slog.SetDefault(log)

	return log, func() { _ = f.Close() }, nil
}

func newTextLogger(w io.Writer, level slog.Level) *slog.Logger {
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// wavRecording hands the TUI's captured PCM to the controller as WAV so the
// configured sample rate travels with the audio.
type wavRecording struct {
	capture    *audio.Capture
	sampleRate int
}

func (r wavRecording) Take() []byte {
	data := r.capture.Take()
	if len(data) < 2 {
		return nil
	}

	wav, err := audio.EncodeWAV(audio.PCM{
		Samples:    audio.BytesToInt16(data),
		SampleRate: r.sampleRate,
	})
	if err != nil {
		return nil
	}

	return wav
}
