package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artsyhq/mediastream/internal/config"
	"github.com/artsyhq/mediastream/internal/retry"
)

type storedObject struct {
	contentType string
	body        []byte
}

// fakeStore is an in-memory ObjectStore recording every interaction.
type fakeStore struct {
	mu            sync.Mutex
	bucketPresent bool
	madeBuckets   []string
	objects       map[string]storedObject
	putErr        error
	getErr        error
	presignExpiry time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{bucketPresent: true, objects: map[string]storedObject{}}
}

func (s *fakeStore) BucketExists(_ context.Context, _ string) (bool, error) {
	return s.bucketPresent, nil
}

func (s *fakeStore) MakeBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.madeBuckets = append(s.madeBuckets, bucket)
	s.bucketPresent = true
	return nil
}

func (s *fakeStore) PutObject(_ context.Context, _, key string, r io.Reader, _ int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storedObject{contentType: contentType, body: body}
	return nil
}

func (s *fakeStore) GetObject(_ context.Context, _, key string) (io.ReadCloser, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.body)), nil
}

func (s *fakeStore) PresignedURL(_ context.Context, bucket, key, method string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	s.presignExpiry = expiry
	s.mu.Unlock()
	return fmt.Sprintf("http://store.test/%s/%s?method=%s", bucket, key, method), nil
}

// fakeRepo records persisted metadata in memory.
type fakeRepo struct {
	videos []Video
	files  []MediaFile
	err    error
}

func (r *fakeRepo) CreateVideo(_ context.Context, v *Video) error {
	if r.err != nil {
		return r.err
	}
	r.videos = append(r.videos, *v)
	return nil
}

func (r *fakeRepo) CreateMediaFile(_ context.Context, f *MediaFile) error {
	if r.err != nil {
		return r.err
	}
	r.files = append(r.files, *f)
	return nil
}

func (r *fakeRepo) ListVideos(_ context.Context) ([]Video, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.videos, nil
}

// fakeVideoTranscoder writes a canned HLS output set instead of running ffmpeg.
type fakeVideoTranscoder struct {
	workDir string
	chunks  []string
	err     error
	calls   int
	input   string
}

func (f *fakeVideoTranscoder) Transcode(_ context.Context, inputPath string) (string, error) {
	f.calls++
	f.input = inputPath
	dir := filepath.Join(f.workDir, "hls_output", fmt.Sprintf("run-%d", f.calls))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	for _, chunk := range f.chunks {
		if err := os.WriteFile(filepath.Join(dir, chunk), []byte("data-"+chunk), 0o644); err != nil {
			return dir, err
		}
	}
	return dir, f.err
}

// fakePhotoTranscoder writes a derivative without decoding anything.
type fakePhotoTranscoder struct {
	workDir string
	err     error
	calls   int
}

func (f *fakePhotoTranscoder) Process(_ context.Context, inputPath string) (string, error) {
	f.calls++
	dir := filepath.Join(f.workDir, "photo_output", fmt.Sprintf("run-%d", f.calls))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "original_"+filepath.Base(inputPath)), []byte("orig"), 0o644); err != nil {
		return dir, err
	}
	if err := os.WriteFile(filepath.Join(dir, "image.jpg"), []byte("jpeg"), 0o644); err != nil {
		return dir, err
	}
	return dir, f.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Bucket:        "media",
		PublicBaseURL: "http://localhost:9000",
		WorkDir:       t.TempDir(),
		PresignExpiry: time.Hour,
	}
}

func newTestService(t *testing.T, cfg *config.Config, store ObjectStore, repo Repository) (*Service, *fakeVideoTranscoder, *fakePhotoTranscoder) {
	t.Helper()
	video := &fakeVideoTranscoder{workDir: cfg.WorkDir, chunks: []string{"playlist.m3u8", "seg0000.ts"}}
	photo := &fakePhotoTranscoder{workDir: cfg.WorkDir}
	svc := NewService(cfg, store, repo, video, photo, zerolog.Nop())
	return svc, video, photo
}

// dirEntries returns every path left under root, for leak checks.
func dirEntries(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path != root && !info.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	require.NoError(t, err)
	return paths
}

func TestUploadVideoSuccess(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	repo := &fakeRepo{}
	svc, video, _ := newTestService(t, cfg, store, repo)

	url, err := svc.UploadVideo(context.Background(), UploadRequest{
		Filename: "movie.mp4",
		Content:  strings.NewReader("raw video bytes"),
		Size:     15,
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/media/movie/playlist.m3u8", url)

	require.Len(t, store.objects, 2)
	playlist := store.objects["movie/playlist.m3u8"]
	assert.Equal(t, ContentTypePlaylist, playlist.contentType)
	assert.Equal(t, []byte("data-playlist.m3u8"), playlist.body)
	segment := store.objects["movie/seg0000.ts"]
	assert.Equal(t, ContentTypeSegment, segment.contentType)

	require.Len(t, repo.videos, 1)
	assert.Equal(t, "movie", repo.videos[0].Title)
	assert.Equal(t, "movie.mp4", repo.videos[0].Filename)
	assert.Equal(t, url, repo.videos[0].StreamURL)
	assert.True(t, strings.HasPrefix(repo.videos[0].ID, "med_"))

	// Staged file and transcode output are both gone.
	assert.Equal(t, 1, video.calls)
	assert.NoFileExists(t, video.input)
	assert.Empty(t, dirEntries(t, cfg.WorkDir))
}

func TestUploadVideoCreatesMissingBucket(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	store.bucketPresent = false
	svc, _, _ := newTestService(t, cfg, store, &fakeRepo{})

	_, err := svc.UploadVideo(context.Background(), UploadRequest{
		Filename: "clip.mov",
		Content:  strings.NewReader("x"),
		Size:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"media"}, store.madeBuckets)
}

func TestUploadVideoTranscodeFailureCleansUp(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	svc, video, _ := newTestService(t, cfg, store, &fakeRepo{})
	video.err = &TranscodeError{ExitCode: 1, Err: errors.New("ffmpeg exploded")}

	_, err := svc.UploadVideo(context.Background(), UploadRequest{
		Filename: "movie.mp4",
		Content:  strings.NewReader("broken"),
		Size:     6,
	})
	var tErr *TranscodeError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, 1, tErr.ExitCode)

	assert.Empty(t, store.objects)
	assert.Empty(t, dirEntries(t, cfg.WorkDir), "staged file and output dir must be cleaned on failure")
}

func TestUploadVideoStoreFailureCleansUp(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	store.putErr = errors.New("connection refused")
	svc, _, _ := newTestService(t, cfg, store, &fakeRepo{})

	_, err := svc.UploadVideo(context.Background(), UploadRequest{
		Filename: "movie.mp4",
		Content:  strings.NewReader("raw"),
		Size:     3,
	})
	require.Error(t, err)
	assert.Empty(t, dirEntries(t, cfg.WorkDir))
}

func TestUploadVideoRejectsInvalidInput(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	svc, video, _ := newTestService(t, cfg, store, &fakeRepo{})

	_, err := svc.UploadVideo(context.Background(), UploadRequest{Filename: "movie.mp4", Size: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UploadVideo(context.Background(), UploadRequest{
		Filename: "  ",
		Content:  strings.NewReader("x"),
		Size:     1,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Rejected uploads never touch the transcoder, the store, or disk.
	assert.Equal(t, 0, video.calls)
	assert.Empty(t, store.objects)
	assert.Empty(t, dirEntries(t, cfg.WorkDir))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadPhotoSuccess(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	repo := &fakeRepo{}
	svc, _, photo := newTestService(t, cfg, store, repo)

	raw := pngBytes(t)
	result, err := svc.UploadPhoto(context.Background(), UploadRequest{
		Filename: "holiday.png",
		Content:  bytes.NewReader(raw),
		Size:     int64(len(raw)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, photo.calls)

	// Photo keys are randomised under the photos/ prefix.
	assert.True(t, strings.HasPrefix(result.ObjectKey, "photos/med_"))
	assert.True(t, strings.HasSuffix(result.ObjectKey, "_image.jpg"))
	assert.Contains(t, result.URL, result.ObjectKey)
	assert.Contains(t, result.URL, "method=GET")

	// Both the archived original and the derivative were uploaded.
	require.Len(t, store.objects, 2)
	_, ok := store.objects[result.ObjectKey]
	assert.True(t, ok)

	require.Len(t, repo.files, 1)
	assert.Equal(t, KindPhoto, repo.files[0].Kind)
	assert.Equal(t, "image/png", repo.files[0].ContentType)

	assert.Empty(t, dirEntries(t, cfg.WorkDir))
}

func TestUploadPhotoKeysDoNotCollide(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	svc, _, _ := newTestService(t, cfg, store, &fakeRepo{})

	raw := pngBytes(t)
	first, err := svc.UploadPhoto(context.Background(), UploadRequest{
		Filename: "same.png", Content: bytes.NewReader(raw), Size: int64(len(raw)),
	})
	require.NoError(t, err)
	second, err := svc.UploadPhoto(context.Background(), UploadRequest{
		Filename: "same.png", Content: bytes.NewReader(raw), Size: int64(len(raw)),
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.ObjectKey, second.ObjectKey)
	assert.Len(t, store.objects, 4)
}

func TestUploadPhotoRejectsNonImage(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	svc, _, photo := newTestService(t, cfg, store, &fakeRepo{})

	_, err := svc.UploadPhoto(context.Background(), UploadRequest{
		Filename: "notes.txt",
		Content:  strings.NewReader("definitely not an image"),
		Size:     23,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, photo.calls)
	assert.Empty(t, store.objects)
	assert.Empty(t, dirEntries(t, cfg.WorkDir))
}

func TestPresignUpload(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	svc, _, _ := newTestService(t, cfg, store, &fakeRepo{})

	url, err := svc.PresignUpload(context.Background(), "uploads/movie.mp4", 5*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "uploads/movie.mp4")
	assert.Contains(t, url, "method=PUT")
	assert.Equal(t, 5*time.Minute, store.presignExpiry)

	// Non-positive expiry falls back to the configured default.
	_, err = svc.PresignUpload(context.Background(), "uploads/movie.mp4", 0)
	require.NoError(t, err)
	assert.Equal(t, cfg.PresignExpiry, store.presignExpiry)

	_, err = svc.PresignUpload(context.Background(), "  ", time.Minute)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetChunk(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	store.objects["movie/seg0000.ts"] = storedObject{contentType: ContentTypeSegment, body: []byte("segment data")}
	svc, _, _ := newTestService(t, cfg, store, &fakeRepo{})

	reader, err := svc.GetChunk(context.Background(), "movie", "seg0000.ts")
	require.NoError(t, err)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "segment data", string(body))

	_, err = svc.GetChunk(context.Background(), "movie", "missing.ts")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetChunk(context.Background(), "", "seg0000.ts")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.GetChunk(context.Background(), "movie", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetChunkDegradesToEmptyStream(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	store.getErr = fmt.Errorf("%w: get object failed after 3 attempts", retry.ErrUnavailable)

	svc, _, _ := newTestService(t, cfg, store, &fakeRepo{})
	_, err := svc.GetChunk(context.Background(), "movie", "seg0000.ts")
	assert.ErrorIs(t, err, retry.ErrUnavailable, "default policy propagates store outages")

	cfg.EmptyStreamOnStoreFailure = true
	reader, err := svc.GetChunk(context.Background(), "movie", "seg0000.ts")
	require.NoError(t, err)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestListVideos(t *testing.T) {
	cfg := testConfig(t)
	repo := &fakeRepo{videos: []Video{{ID: "med_1", Title: "movie"}}}
	svc, _, _ := newTestService(t, cfg, newFakeStore(), repo)

	videos, err := svc.ListVideos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "movie", videos[0].Title)
}
