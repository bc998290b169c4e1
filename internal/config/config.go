package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvProduction represents the production environment.
	EnvProduction = "production"
	// EnvDevelopment represents the development environment.
	EnvDevelopment = "development"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Env  string `envconfig:"ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	// Security settings
	HSTSMaxAge int    `envconfig:"HSTS_MAX_AGE" default:"31536000"`
	CSPMode    string `envconfig:"CSP_MODE" default:"relaxed"`

	// Logging settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Output settings
	ImageDir string `envconfig:"IMAGE_DIR" default:"generated_images"`

	// Collaborator settings
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL      string `envconfig:"OPENAI_BASE_URL"`
	TranscribeModel    string `envconfig:"TRANSCRIBE_MODEL" default:"whisper-1"`
	TranscribeLanguage string `envconfig:"TRANSCRIBE_LANGUAGE" default:"en"`
	ImageModel         string `envconfig:"IMAGE_MODEL" default:"dall-e-3"`
	ImageSize          string `envconfig:"IMAGE_SIZE" default:"1024x1024"`

	// Session settings
	SampleRate    int           `envconfig:"SAMPLE_RATE" default:"48000"`
	MaxAudioBytes int64         `envconfig:"MAX_AUDIO_BYTES" default:"33554432"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"1h"`

	// S3 mirror settings (optional)
	S3 S3Config `envconfig:"S3"`
}

// S3Config holds the optional S3-compatible mirror settings.
// Variables are prefixed with S3_ (S3_ENDPOINT, S3_BUCKET, ...).
type S3Config struct {
	Endpoint  string `envconfig:"ENDPOINT"`
	AccessKey string `envconfig:"ACCESS_KEY"`
	SecretKey string `envconfig:"SECRET_KEY"`
	Bucket    string `envconfig:"BUCKET"`
	Region    string `envconfig:"REGION"`
	UseSSL    bool   `envconfig:"USE_SSL" default:"true"`
	Prefix    string `envconfig:"PREFIX" default:"speakimage"`
}

// LoadConfig loads configuration from .env file and environment variables.
func LoadConfig() (*Config, error) {
	// Try to load .env file (optional for development)
	if err := godotenv.Load(); err != nil {
		// Not an error if file doesn't exist (expected in production)
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	// Parse environment variables into config struct
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}

	if c.MaxAudioBytes <= 0 {
		return fmt.Errorf("MAX_AUDIO_BYTES must be positive, got %d", c.MaxAudioBytes)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}

	if c.ImageDir == "" {
		return errors.New("IMAGE_DIR cannot be empty")
	}

	return nil
}

// BuildCSP constructs Content Security Policy based on mode.
// The control panel needs blob: media for audio playback of the recording.
func BuildCSP(mode string) string {
	if mode == "strict" {
		// Production CSP
		return "default-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"script-src 'self'; " +
			"img-src 'self' data: blob:; " +
			"media-src 'self' blob:; " +
			"object-src 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
	}

	// Development/relaxed CSP
	return "default-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"script-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data: blob:; " +
		"media-src 'self' blob:"
}
