package entities

import "time"

// Game is a catalog game stored locally after first use.
type Game struct {
	ID            int64     `gorm:"primaryKey;autoIncrement:false"`
	Name          string    `gorm:"type:varchar(255);not null;index:idx_games_name"`
	Slug          string    `gorm:"type:varchar(255);not null"`
	CoverID       int64     `gorm:"not null;default:0"`
	CoverImageID  string    `gorm:"type:varchar(64);not null;default:''"`
	CoverURL      string    `gorm:"type:text;not null;default:''"`
	CoverChecksum string    `gorm:"type:varchar(64);not null;default:''"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (Game) TableName() string {
	return "games"
}
