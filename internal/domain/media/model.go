package media

import (
	"io"
	"time"
)

// Kind discriminates the two supported media pipelines.
type Kind string

const (
	KindVideo Kind = "video"
	KindPhoto Kind = "photo"
)

// UploadRequest carries one inbound media upload. It is immutable once
// received; the pipeline reads Content exactly once.
type UploadRequest struct {
	Filename    string
	Content     io.Reader
	Size        int64
	ContentType string
}

// Video represents stored video metadata.
type Video struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	StreamURL string    `json:"stream_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MediaFile represents stored metadata for a single uploaded object.
type MediaFile struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
	Bytes       int64     `json:"bytes"`
	Kind        Kind      `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PhotoUpload is the result of a photo pipeline run.
type PhotoUpload struct {
	ObjectKey string `json:"object_key"`
	URL       string `json:"url"`
}
