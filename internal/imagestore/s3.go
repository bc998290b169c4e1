package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures the optional S3-compatible mirror.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

// Enabled reports whether a mirror endpoint is configured.
func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

// Uploader puts an object into remote storage and returns its public URL.
type Uploader interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type s3Uploader struct {
	client *minio.Client
	bucket string
	host   string
}

// NewS3Uploader connects to an S3-compatible endpoint and verifies the bucket.
func NewS3Uploader(ctx context.Context, cfg S3Config) (Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("S3 bucket is required when S3 endpoint is set")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}

	return &s3Uploader{
		client: client,
		bucket: cfg.Bucket,
		host:   fmt.Sprintf("%s://%s", scheme, cfg.Endpoint),
	}, nil
}

func (u *s3Uploader) PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"uploaded-at": time.Now().Format(time.RFC3339)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return fmt.Sprintf("%s/%s/%s", u.host, u.bucket, url.PathEscape(key)), nil
}

// MirrorStore saves locally and then copies each image to remote storage.
// The local file is the durable artifact; upload errors are only logged.
type MirrorStore struct {
	local    *LocalStore
	uploader Uploader
	prefix   string
	logger   *slog.Logger
}

// NewMirrorStore wraps local with an uploader. Keys are prefix/<file name>.
func NewMirrorStore(local *LocalStore, uploader Uploader, prefix string, logger *slog.Logger) *MirrorStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &MirrorStore{
		local:    local,
		uploader: uploader,
		prefix:   prefix,
		logger:   logger,
	}
}

// Save writes the image locally, then mirrors it.
func (m *MirrorStore) Save(ctx context.Context, data []byte) (string, error) {
	localPath, err := m.local.Save(ctx, data)
	if err != nil {
		return "", err
	}

	key := path.Join(m.prefix, filepath.Base(localPath))

	publicURL, err := m.uploader.PutObject(ctx, key, data, "image/png")
	if err != nil {
		m.logger.Warn("Failed to mirror image", "key", key, "error", err)
		return localPath, nil
	}

	m.logger.Info("Mirrored image", "key", key, "url", publicURL)

	return localPath, nil
}
