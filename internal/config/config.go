package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the streaming service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"mediastream"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"MEDIASTREAM_PORT" envDefault:"8290"`
	LogLevel        string        `env:"MEDIASTREAM_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database
	DatabaseDSN    string        `env:"DB_POSTGRESQL_DSN,notEmpty"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage Backend Selection
	StorageBackend string `env:"MEDIA_STORAGE_BACKEND" envDefault:"s3"` // Options: "s3" or "local"

	// Local Storage Configuration
	LocalStoragePath string `env:"MEDIA_LOCAL_STORAGE_PATH"`

	// S3 / MinIO Configuration
	S3Endpoint     string `env:"MEDIA_S3_ENDPOINT"`
	S3Region       string `env:"MEDIA_S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID  string `env:"MEDIA_S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"MEDIA_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"MEDIA_S3_USE_PATH_STYLE" envDefault:"true"`

	// Media Pipeline Configuration
	Bucket        string `env:"MEDIA_BUCKET" envDefault:"media"`
	PublicBaseURL string `env:"MEDIA_PUBLIC_BASE_URL" envDefault:"http://localhost:9000"`
	WorkDir       string `env:"MEDIA_WORK_DIR"` // defaults to the OS temp dir
	MaxUploadMB   int64  `env:"MEDIA_MAX_UPLOAD_MB" envDefault:"512"`

	// Transcoding
	FFmpegPath        string  `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	HLSSegmentSeconds int     `env:"HLS_SEGMENT_SECONDS" envDefault:"10"`
	PhotoMaxWidth     int     `env:"PHOTO_MAX_WIDTH" envDefault:"800"`
	PhotoMaxHeight    int     `env:"PHOTO_MAX_HEIGHT" envDefault:"600"`
	PhotoQuality      float64 `env:"PHOTO_QUALITY" envDefault:"0.85"`

	// Object store retry behaviour
	StoreRetryAttempts   int           `env:"STORE_RETRY_ATTEMPTS" envDefault:"3"`
	StoreRetryBaseDelay  time.Duration `env:"STORE_RETRY_BASE_DELAY" envDefault:"1s"`
	BucketRetryBaseDelay time.Duration `env:"BUCKET_RETRY_BASE_DELAY" envDefault:"500ms"`

	// Presigned URLs
	PresignExpiry time.Duration `env:"PRESIGN_EXPIRY" envDefault:"60m"`

	// When the store stays unavailable after retries, chunk retrieval either
	// fails (default) or hands back an empty stream.
	EmptyStreamOnStoreFailure bool `env:"EMPTY_STREAM_ON_STORE_FAILURE" envDefault:"false"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("MEDIA_BUCKET must not be empty")
	}
	if cfg.StoreRetryAttempts <= 0 {
		cfg.StoreRetryAttempts = 3
	}
	if cfg.PhotoQuality <= 0 || cfg.PhotoQuality > 1 {
		return nil, fmt.Errorf("PHOTO_QUALITY must be in (0, 1], got %v", cfg.PhotoQuality)
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsLocalStorage returns true if the local storage backend is configured.
func (c *Config) IsLocalStorage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "local"
}

// IsS3Storage returns true if the S3 storage backend is configured.
func (c *Config) IsS3Storage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "s3"
}
