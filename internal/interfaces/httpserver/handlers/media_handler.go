package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/artsyhq/mediastream/internal/config"
	domain "github.com/artsyhq/mediastream/internal/domain/media"
	"github.com/artsyhq/mediastream/internal/infrastructure/metrics"
	"github.com/artsyhq/mediastream/internal/interfaces/httpserver/responses"
)

// MediaHandler exposes the upload and streaming endpoints.
type MediaHandler struct {
	cfg     *config.Config
	service *domain.Service
	log     zerolog.Logger
}

func NewMediaHandler(cfg *config.Config, service *domain.Service, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "media-handler").Logger(),
	}
}

// UploadVideo godoc
// @Summary      Upload a video
// @Description  Transcodes the upload to HLS and stores the chunks, returning the public stream URL.
// @Tags         videos
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Video file"
// @Success      200  {object}  responses.VideoUploadResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Router       /v1/videos [post]
func (h *MediaHandler) UploadVideo(c *gin.Context) {
	req, file, ok := h.bindUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	url, err := h.service.UploadVideo(c.Request.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("filename", req.Filename).Msg("video upload failed")
		metrics.RecordUpload("video", "error", 0)
		responses.HandleError(c, err)
		return
	}

	metrics.RecordUpload("video", "success", req.Size)
	c.JSON(http.StatusOK, responses.VideoUploadResponse{StreamURL: url})
}

// UploadPhoto godoc
// @Summary      Upload a photo
// @Description  Stores the original and a resized derivative, returning the object key and a presigned URL.
// @Tags         photos
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Photo file"
// @Success      200  {object}  responses.PhotoUploadResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Router       /v1/photos [post]
func (h *MediaHandler) UploadPhoto(c *gin.Context) {
	req, file, ok := h.bindUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.service.UploadPhoto(c.Request.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("filename", req.Filename).Msg("photo upload failed")
		metrics.RecordUpload("photo", "error", 0)
		responses.HandleError(c, err)
		return
	}

	metrics.RecordUpload("photo", "success", req.Size)
	c.JSON(http.StatusOK, responses.PhotoUploadResponse{ObjectKey: result.ObjectKey, URL: result.URL})
}

// PresignUpload godoc
// @Summary      Request a presigned upload URL
// @Tags         videos
// @Produce      json
// @Param        filename        query  string  true   "Object filename"
// @Param        expiry_minutes  query  int     false  "URL validity in minutes (default 60)"
// @Success      200  {object}  responses.PresignResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Router       /v1/videos/presigned-url [get]
func (h *MediaHandler) PresignUpload(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "filename is required"})
		return
	}

	expiryMinutes := 60
	if raw := c.Query("expiry_minutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "expiry_minutes must be a positive integer"})
			return
		}
		expiryMinutes = parsed
	}
	expiry := time.Duration(expiryMinutes) * time.Minute

	url, err := h.service.PresignUpload(c.Request.Context(), "uploads/"+filename, expiry)
	if err != nil {
		h.log.Error().Err(err).Str("filename", filename).Msg("presign failed")
		responses.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.PresignResponse{URL: url, ExpiresIn: expiryMinutes * 60})
}

// StreamChunk godoc
// @Summary      Stream one HLS chunk
// @Tags         videos
// @Produce      octet-stream
// @Param        prefix  path  string  true  "Video prefix"
// @Param        chunk   path  string  true  "Chunk filename"
// @Success      200  "binary data"
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/videos/stream/{prefix}/{chunk} [get]
func (h *MediaHandler) StreamChunk(c *gin.Context) {
	prefix := c.Param("prefix")
	chunk := c.Param("chunk")

	reader, err := h.service.GetChunk(c.Request.Context(), prefix, chunk)
	if err != nil {
		h.log.Error().Err(err).Str("prefix", prefix).Str("chunk", chunk).Msg("chunk retrieval failed")
		responses.HandleError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Type", domain.ContentTypeFor(chunk))
	c.Header("Cache-Control", "max-age=3600, public")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", chunk))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.log.Error().Err(err).Str("chunk", chunk).Msg("stream error")
	}
}

// ListVideos godoc
// @Summary      List uploaded videos
// @Tags         videos
// @Produce      json
// @Success      200  {array}  media.Video
// @Router       /v1/videos [get]
func (h *MediaHandler) ListVideos(c *gin.Context) {
	videos, err := h.service.ListVideos(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list videos failed")
		responses.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// bindUpload validates the multipart upload before the pipeline runs. Empty
// files are rejected here: no staging, no transcoder, no store call.
func (h *MediaHandler) bindUpload(c *gin.Context) (domain.UploadRequest, multipart.File, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "file is required"})
		return domain.UploadRequest{}, nil, false
	}

	if header.Size == 0 {
		file.Close()
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "file is empty"})
		return domain.UploadRequest{}, nil, false
	}
	if maxBytes := h.cfg.MaxUploadMB * 1024 * 1024; maxBytes > 0 && header.Size > maxBytes {
		file.Close()
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error: fmt.Sprintf("file exceeds max size of %d MB", h.cfg.MaxUploadMB),
		})
		return domain.UploadRequest{}, nil, false
	}

	return domain.UploadRequest{
		Filename:    header.Filename,
		Content:     file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}, file, true
}
