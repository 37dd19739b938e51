package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/artsyhq/mediastream/internal/config"
	"github.com/artsyhq/mediastream/internal/retry"
	"github.com/artsyhq/mediastream/utils/mediaid"
)

// Repository defines persistence operations needed by the service.
type Repository interface {
	CreateVideo(ctx context.Context, video *Video) error
	CreateMediaFile(ctx context.Context, file *MediaFile) error
	ListVideos(ctx context.Context) ([]Video, error)
}

// Service orchestrates media ingestion: staging, transcoding, chunk upload,
// and cleanup. It owns no state beyond the current attempt; staged files and
// output directories live and die within a single call.
type Service struct {
	cfg      *config.Config
	store    ObjectStore
	repo     Repository
	stager   *Stager
	uploader *ChunkUploader
	video    VideoTranscoder
	photo    PhotoTranscoder
	log      zerolog.Logger
}

func NewService(cfg *config.Config, store ObjectStore, repo Repository, video VideoTranscoder, photo PhotoTranscoder, log zerolog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		repo:     repo,
		stager:   NewStager(cfg.WorkDir, log),
		uploader: NewChunkUploader(store, cfg.Bucket, log),
		video:    video,
		photo:    photo,
		log:      log.With().Str("component", "media-service").Logger(),
	}
}

func validate(req UploadRequest) error {
	if strings.TrimSpace(req.Filename) == "" {
		return fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	if req.Size == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	return nil
}

// UploadVideo runs the full video pipeline and returns the public HLS stream
// URL. The staged file and the transcode output directory are deleted on
// every exit path.
func (s *Service) UploadVideo(ctx context.Context, req UploadRequest) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	staged, err := s.stager.Stage(req)
	if err != nil {
		return "", err
	}
	defer s.stager.Release(staged)

	outDir, err := s.video.Transcode(ctx, staged)
	if outDir != "" {
		defer s.stager.ReleaseDir(outDir)
	}
	if err != nil {
		return "", err
	}

	keyFn := func(chunk string) string { return ObjectKey(req.Filename, chunk) }
	if err := s.uploader.Upload(ctx, outDir, keyFn, VideoContentTypeFor); err != nil {
		return "", err
	}

	url := StreamURL(s.cfg.PublicBaseURL, s.cfg.Bucket, req.Filename)

	video := &Video{
		ID:        mediaid.New(),
		Title:     StripExtension(req.Filename),
		Filename:  req.Filename,
		StreamURL: url,
	}
	if err := s.repo.CreateVideo(ctx, video); err != nil {
		return "", fmt.Errorf("persist video metadata: %w", err)
	}

	s.log.Info().Str("filename", req.Filename).Str("stream_url", url).Msg("video upload complete")
	return url, nil
}

// UploadPhoto archives the original, uploads a resized derivative, and
// returns the derivative's object key plus a presigned GET URL. Photo keys
// are randomised (photos/<id>_<name>) so repeated uploads of the same
// filename never overwrite each other; this is deliberately different from
// the deterministic video key scheme.
func (s *Service) UploadPhoto(ctx context.Context, req UploadRequest) (*PhotoUpload, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	staged, err := s.stager.Stage(req)
	if err != nil {
		return nil, err
	}
	defer s.stager.Release(staged)

	mime, err := mimetype.DetectFile(staged)
	if err != nil {
		return nil, fmt.Errorf("%w: detect content type: %v", ErrIO, err)
	}
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrInvalidInput, mime.String())
	}

	outDir, err := s.photo.Process(ctx, staged)
	if outDir != "" {
		defer s.stager.ReleaseDir(outDir)
	}
	if err != nil {
		return nil, err
	}

	id := mediaid.New()
	keyFn := func(chunk string) string { return "photos/" + id + "_" + chunk }
	if err := s.uploader.Upload(ctx, outDir, keyFn, ContentTypeFor); err != nil {
		return nil, err
	}

	derivativeKey := keyFn("image.jpg")
	url, err := s.store.PresignedURL(ctx, s.cfg.Bucket, derivativeKey, http.MethodGet, s.cfg.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign photo url: %w", err)
	}

	file := &MediaFile{
		ID:          id,
		Filename:    req.Filename,
		ObjectKey:   derivativeKey,
		ContentType: mime.String(),
		Bytes:       req.Size,
		Kind:        KindPhoto,
	}
	if err := s.repo.CreateMediaFile(ctx, file); err != nil {
		return nil, fmt.Errorf("persist photo metadata: %w", err)
	}

	s.log.Info().Str("filename", req.Filename).Str("object_key", derivativeKey).Msg("photo upload complete")
	return &PhotoUpload{ObjectKey: derivativeKey, URL: url}, nil
}

// PresignUpload returns a presigned PUT URL clients use to upload an object
// directly to the store. A non-positive expiry falls back to the configured
// default.
func (s *Service) PresignUpload(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if strings.TrimSpace(objectName) == "" {
		return "", fmt.Errorf("%w: object name is required", ErrInvalidInput)
	}
	if expiry <= 0 {
		expiry = s.cfg.PresignExpiry
	}
	return s.store.PresignedURL(ctx, s.cfg.Bucket, objectName, http.MethodPut, expiry)
}

// GetChunk streams one stored chunk. When the store stays unavailable after
// retries, the configured recovery policy either propagates the failure
// (default) or degrades to an empty stream.
func (s *Service) GetChunk(ctx context.Context, prefix, chunk string) (io.ReadCloser, error) {
	if prefix == "" || chunk == "" {
		return nil, fmt.Errorf("%w: prefix and chunk are required", ErrInvalidInput)
	}
	key := prefix + "/" + chunk

	reader, err := s.store.GetObject(ctx, s.cfg.Bucket, key)
	if err != nil {
		if s.cfg.EmptyStreamOnStoreFailure && errors.Is(err, retry.ErrUnavailable) {
			s.log.Error().Err(err).Str("key", key).Msg("store unavailable, degrading to empty stream")
			return io.NopCloser(bytes.NewReader(nil)), nil
		}
		return nil, err
	}
	return reader, nil
}

// ListVideos returns the stored video catalogue.
func (s *Service) ListVideos(ctx context.Context) ([]Video, error) {
	return s.repo.ListVideos(ctx)
}
