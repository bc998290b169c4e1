// Package imagestore persists generated images under unique file names.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the time portion of generated file names.
const TimestampLayout = "20060102_150405"

// UniqueFilename returns image_<YYYYMMDD_HHMMSS>_<8 hex chars>.png for now.
// The suffix is the leading 8 hex digits of a random UUID.
func UniqueFilename(now time.Time) string {
	return fmt.Sprintf("image_%s_%s.png", now.Format(TimestampLayout), uuid.NewString()[:8])
}

// Prep ensures that the image output directory exists.
func Prep(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}

	return nil
}

// Exists reports whether a previously saved image is still on disk.
func Exists(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

// LocalStore writes images into a single directory. Files are never
// modified or removed once written.
type LocalStore struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewLocalStore creates a store rooted at dir. The directory is created on
// the first Save if Prep was not called.
func NewLocalStore(dir string, logger *slog.Logger) *LocalStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &LocalStore{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// Dir returns the output directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes data under a fresh unique name and returns the file path.
func (s *LocalStore) Save(_ context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("failed to save image: no image data")
	}

	if err := Prep(s.dir); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, UniqueFilename(s.now()))

	// temp file + rename so readers never see a partial image
	tmp, err := os.CreateTemp(s.dir, ".image-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close image file: %w", err)
	}

	//nolint:gosec // Generated images need to be readable
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		s.logger.Warn("failed to chmod image", "path", tmpPath, "error", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move image into place: %w", err)
	}

	s.logger.Debug("Saved image", "path", path, "bytes", len(data))

	return path, nil
}
