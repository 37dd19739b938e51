package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/artsyhq/mediastream/internal/config"
	"github.com/artsyhq/mediastream/internal/domain/media"
)

// LocalStore is a filesystem-backed object store used for development and
// tests. Buckets map to directories under the base path. Presigned URLs are
// plain unsigned paths since there is nothing to sign.
type LocalStore struct {
	basePath string
	baseURL  string
	log      zerolog.Logger
}

func NewLocalStore(cfg *config.Config, log zerolog.Logger) (*LocalStore, error) {
	basePath := cfg.LocalStoragePath
	if basePath == "" {
		return nil, fmt.Errorf("MEDIA_LOCAL_STORAGE_PATH is required for the local storage backend")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create local storage directory: %w", err)
	}
	return &LocalStore{
		basePath: basePath,
		baseURL:  cfg.PublicBaseURL,
		log:      log.With().Str("component", "local-store").Logger(),
	}, nil
}

func (l *LocalStore) bucketPath(bucket string) string {
	return filepath.Join(l.basePath, bucket)
}

func (l *LocalStore) objectPath(bucket, key string) string {
	return filepath.Join(l.bucketPath(bucket), filepath.FromSlash(key))
}

func (l *LocalStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	info, err := os.Stat(l.bucketPath(bucket))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (l *LocalStore) MakeBucket(ctx context.Context, bucket string) error {
	return os.MkdirAll(l.bucketPath(bucket), 0o755)
}

func (l *LocalStore) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	path := l.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create object file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write object file: %w", err)
	}
	return f.Close()
}

func (l *LocalStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	f, err := os.Open(l.objectPath(bucket, key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s/%s", media.ErrNotFound, bucket, key)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (l *LocalStore) PresignedURL(ctx context.Context, bucket, key, method string, expiry time.Duration) (string, error) {
	return l.baseURL + "/" + bucket + "/" + key, nil
}
