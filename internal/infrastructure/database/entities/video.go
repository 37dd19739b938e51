package entities

import "time"

// Video represents the persisted video metadata.
type Video struct {
	ID        string    `gorm:"type:varchar(40);primaryKey"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Filename  string    `gorm:"type:varchar(255);not null"`
	StreamURL string    `gorm:"type:varchar(512);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Video) TableName() string {
	return "videos"
}
