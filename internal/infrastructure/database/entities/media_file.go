package entities

import "time"

// MediaFile represents persisted metadata for a single uploaded object.
type MediaFile struct {
	ID          string    `gorm:"type:varchar(40);primaryKey"`
	Filename    string    `gorm:"type:varchar(255);not null"`
	ObjectKey   string    `gorm:"type:varchar(512);not null;index"`
	ContentType string    `gorm:"type:varchar(64);not null"`
	Bytes       int64     `gorm:"not null"`
	Kind        string    `gorm:"type:varchar(16);not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (MediaFile) TableName() string {
	return "media_files"
}
