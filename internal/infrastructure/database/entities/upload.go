package entities

import "time"

// Upload is an upload ledger entry awaiting consumption by a post.
type Upload struct {
	ID            string    `gorm:"type:varchar(16);primaryKey"`
	FileName      string    `gorm:"type:varchar(255);not null"`
	FileExtension string    `gorm:"type:varchar(16);not null"`
	FileSize      int64     `gorm:"not null"`
	FileType      string    `gorm:"type:varchar(64);not null"`
	OwnerID       string    `gorm:"type:varchar(64);not null"`
	CreatedAt     time.Time `gorm:"not null;index:idx_uploads_created_at"`
}

func (Upload) TableName() string {
	return "uploads"
}
