package media

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/artsyhq/mediastream/internal/domain/media"
	"github.com/artsyhq/mediastream/internal/infrastructure/database/entities"
)

// Repository handles media metadata persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateVideo(ctx context.Context, video *domain.Video) error {
	entity := entities.Video{
		ID:        video.ID,
		Title:     video.Title,
		Filename:  video.Filename,
		StreamURL: video.StreamURL,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return fmt.Errorf("create video record: %w", err)
	}
	return nil
}

func (r *Repository) CreateMediaFile(ctx context.Context, file *domain.MediaFile) error {
	entity := entities.MediaFile{
		ID:          file.ID,
		Filename:    file.Filename,
		ObjectKey:   file.ObjectKey,
		ContentType: file.ContentType,
		Bytes:       file.Bytes,
		Kind:        string(file.Kind),
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return fmt.Errorf("create media file record: %w", err)
	}
	return nil
}

func (r *Repository) ListVideos(ctx context.Context) ([]domain.Video, error) {
	var records []entities.Video
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	videos := make([]domain.Video, 0, len(records))
	for _, entity := range records {
		videos = append(videos, domain.Video{
			ID:        entity.ID,
			Title:     entity.Title,
			Filename:  entity.Filename,
			StreamURL: entity.StreamURL,
			CreatedAt: entity.CreatedAt,
			UpdatedAt: entity.UpdatedAt,
		})
	}
	return videos, nil
}
