package entities

import "time"

// Post is a persisted image post keyed by the id of the upload it consumed.
type Post struct {
	ID            string    `gorm:"type:varchar(16);primaryKey"`
	Title         string    `gorm:"type:varchar(64);not null"`
	Caption       *string   `gorm:"type:varchar(200)"`
	ImageWidth    int       `gorm:"not null"`
	ImageHeight   int       `gorm:"not null"`
	FileExtension string    `gorm:"type:varchar(16);not null"`
	FileType      string    `gorm:"type:varchar(64);not null"`
	FileSize      int64     `gorm:"not null"`
	AuthorID      string    `gorm:"type:varchar(64);not null;index:idx_posts_author_id"`
	GameID        int64     `gorm:"not null;index:idx_posts_game_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`

	Author User `gorm:"foreignKey:AuthorID"`
	Game   Game `gorm:"foreignKey:GameID"`
}

func (Post) TableName() string {
	return "posts"
}

// All lists every entity in dependency order.
func All() []any {
	return []any{&User{}, &Game{}, &Upload{}, &Post{}}
}
