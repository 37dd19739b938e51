package storage

import (
	"context"
	"io"
	"time"

	"github.com/artsyhq/mediastream/internal/config"
	"github.com/artsyhq/mediastream/internal/domain/media"
	"github.com/artsyhq/mediastream/internal/infrastructure/metrics"
	"github.com/artsyhq/mediastream/internal/retry"
)

// RetryingStore decorates an object store with bounded exponential-backoff
// retry. Transient connection/I/O failures are retried up to the configured
// attempt budget; everything else propagates immediately. Bucket checks use a
// shorter base delay than object operations.
type RetryingStore struct {
	inner     media.ObjectStore
	bucketCfg retry.Config
	objectCfg retry.Config
}

func NewRetryingStore(inner media.ObjectStore, cfg *config.Config) *RetryingStore {
	return &RetryingStore{
		inner: inner,
		bucketCfg: retry.Config{
			MaxAttempts: cfg.StoreRetryAttempts,
			BaseDelay:   cfg.BucketRetryBaseDelay,
			IsTransient: retry.DefaultIsTransient,
		},
		objectCfg: retry.Config{
			MaxAttempts: cfg.StoreRetryAttempts,
			BaseDelay:   cfg.StoreRetryBaseDelay,
			IsTransient: retry.DefaultIsTransient,
		},
	}
}

func record(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordStoreOperation(operation, status, time.Since(start).Seconds())
}

func (r *RetryingStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	start := time.Now()
	exists, err := retry.Do(ctx, r.bucketCfg, "bucket-exists", func(ctx context.Context) (bool, error) {
		return r.inner.BucketExists(ctx, bucket)
	})
	record("bucket_exists", start, err)
	return exists, err
}

func (r *RetryingStore) MakeBucket(ctx context.Context, bucket string) error {
	start := time.Now()
	_, err := retry.Do(ctx, r.bucketCfg, "make-bucket", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.inner.MakeBucket(ctx, bucket)
	})
	record("make_bucket", start, err)
	return err
}

// PutObject retries only when the reader can be rewound; a plain stream has
// already been partially consumed by a failed attempt, so it gets one shot
// unless it is an io.ReadSeeker.
func (r *RetryingStore) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	start := time.Now()

	seeker, rewindable := body.(io.ReadSeeker)
	if !rewindable {
		err := r.inner.PutObject(ctx, bucket, key, body, size, contentType)
		record("put_object", start, err)
		return err
	}

	_, err := retry.Do(ctx, r.objectCfg, "put-object", func(ctx context.Context) (struct{}, error) {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, r.inner.PutObject(ctx, bucket, key, seeker, size, contentType)
	})
	record("put_object", start, err)
	return err
}

func (r *RetryingStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	start := time.Now()
	reader, err := retry.Do(ctx, r.objectCfg, "get-object", func(ctx context.Context) (io.ReadCloser, error) {
		return r.inner.GetObject(ctx, bucket, key)
	})
	record("get_object", start, err)
	return reader, err
}

func (r *RetryingStore) PresignedURL(ctx context.Context, bucket, key, method string, expiry time.Duration) (string, error) {
	start := time.Now()
	url, err := retry.Do(ctx, r.objectCfg, "presign-url", func(ctx context.Context) (string, error) {
		return r.inner.PresignedURL(ctx, bucket, key, method, expiry)
	})
	record("presign_url", start, err)
	return url, err
}
