package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// ObjectStore defines the object storage operations consumed by the pipeline.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, bucket, key, method string, expiry time.Duration) (string, error)
}

// ChunkUploader puts every chunk of a transcode output into the object store.
type ChunkUploader struct {
	store  ObjectStore
	bucket string
	log    zerolog.Logger
}

func NewChunkUploader(store ObjectStore, bucket string, log zerolog.Logger) *ChunkUploader {
	return &ChunkUploader{
		store:  store,
		bucket: bucket,
		log:    log.With().Str("component", "chunk-uploader").Logger(),
	}
}

// EnsureBucket makes sure the target bucket exists, creating it if needed.
func (u *ChunkUploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.store.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", u.bucket, err)
	}
	if exists {
		return nil
	}
	u.log.Info().Str("bucket", u.bucket).Msg("bucket does not exist, creating it")
	if err := u.store.MakeBucket(ctx, u.bucket); err != nil {
		return fmt.Errorf("create bucket %q: %w", u.bucket, err)
	}
	return nil
}

// Upload ensures the bucket exists and then puts every file in outDir under
// the key derived by keyFn, with the content type derived by contentTypeFn.
// Chunks are independent objects; the first failing put aborts the attempt
// and already-uploaded chunks stay in the store. Re-running the pipeline is
// idempotent when keyFn is deterministic.
func (u *ChunkUploader) Upload(ctx context.Context, outDir string, keyFn func(chunk string) string, contentTypeFn func(chunk string) string) error {
	if err := u.EnsureBucket(ctx); err != nil {
		return err
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return fmt.Errorf("%w: read output directory: %v", ErrIO, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := u.uploadChunk(ctx, outDir, entry.Name(), keyFn, contentTypeFn); err != nil {
			return err
		}
	}
	return nil
}

func (u *ChunkUploader) uploadChunk(ctx context.Context, outDir, name string, keyFn, contentTypeFn func(string) string) error {
	path := filepath.Join(outDir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open chunk %s: %v", ErrIO, name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat chunk %s: %v", ErrIO, name, err)
	}

	key := keyFn(name)
	contentType := contentTypeFn(name)
	u.log.Debug().Str("chunk", name).Str("key", key).Str("content_type", contentType).Msg("uploading chunk")

	if err := u.store.PutObject(ctx, u.bucket, key, f, info.Size(), contentType); err != nil {
		return fmt.Errorf("upload chunk %s: %w", name, err)
	}
	return nil
}
