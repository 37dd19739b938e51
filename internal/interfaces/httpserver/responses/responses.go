package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/artsyhq/mediastream/internal/domain/media"
	"github.com/artsyhq/mediastream/internal/retry"
)

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// VideoUploadResponse carries the public stream URL of an uploaded video.
type VideoUploadResponse struct {
	StreamURL string `json:"stream_url"`
}

// PhotoUploadResponse carries the stored photo's key and presigned URL.
type PhotoUploadResponse struct {
	ObjectKey string `json:"object_key"`
	URL       string `json:"url"`
}

// PresignResponse carries a presigned upload URL.
type PresignResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// HandleError maps domain errors onto HTTP status codes. Invalid input is the
// client's fault; a missing object is 404; everything else, including a
// persistently unavailable store, is a server error.
func HandleError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, media.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, media.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, retry.ErrUnavailable):
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}
