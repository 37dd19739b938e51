//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/artsyhq/mediastream/internal/config"
	domain "github.com/artsyhq/mediastream/internal/domain/media"
	"github.com/artsyhq/mediastream/internal/infrastructure/database"
	"github.com/artsyhq/mediastream/internal/infrastructure/logger"
	repo "github.com/artsyhq/mediastream/internal/infrastructure/repository/media"
	"github.com/artsyhq/mediastream/internal/interfaces/httpserver"
)

var mediaSet = wire.NewSet(
	repo.NewRepository,
	wire.Bind(new(domain.Repository), new(*repo.Repository)),
	provideStore,
	provideVideoTranscoder,
	providePhotoTranscoder,
	domain.NewService,
)

// BuildApplication assembles the media pipeline with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		mediaSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func provideVideoTranscoder(cfg *config.Config, log zerolog.Logger) domain.VideoTranscoder {
	return domain.NewFFmpegTranscoder(cfg.FFmpegPath, cfg.WorkDir, cfg.HLSSegmentSeconds, log)
}

func providePhotoTranscoder(cfg *config.Config, log zerolog.Logger) domain.PhotoTranscoder {
	return domain.NewImageProcessor(cfg.WorkDir, cfg.PhotoMaxWidth, cfg.PhotoMaxHeight, cfg.PhotoQuality, log)
}
