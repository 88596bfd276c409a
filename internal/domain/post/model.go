package post

import (
	"context"
	"time"

	"github.com/nollidnosnhoj/ggpx/internal/domain/game"
)

const (
	UploadKeyPrefix         = "uploads/posts/original/"
	UploadIDLength          = 8
	MinImageDimension       = 720
	MaxFileSize       int64 = 1_000_000_000
	MaxBatchSize            = 10
)

// UploadKey is the object storage key for an upload's original bytes.
func UploadKey(id, ext string) string {
	return UploadKeyPrefix + id + ext
}

// Upload is a ledger entry for an authorized but not yet consumed upload.
type Upload struct {
	ID            string    `json:"id"`
	FileName      string    `json:"file_name"`
	FileExtension string    `json:"file_extension"`
	FileSize      int64     `json:"file_size"`
	FileType      string    `json:"file_type"`
	OwnerID       string    `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Key returns the storage key of the upload.
func (u *Upload) Key() string {
	return UploadKey(u.ID, u.FileExtension)
}

// Post is a persisted image post. Its id is the id of the upload it consumed.
type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Caption       string    `json:"caption,omitempty"`
	ImageWidth    int       `json:"image_width"`
	ImageHeight   int       `json:"image_height"`
	FileExtension string    `json:"file_extension"`
	FileType      string    `json:"file_type"`
	FileSize      int64     `json:"file_size"`
	AuthorID      string    `json:"author_id"`
	GameID        int64     `json:"game_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Author is the projection of a user attached to posts.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GameRef is the projection of a game attached to posts.
type GameRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PostView is a post enriched with its author and game.
type PostView struct {
	Post
	Author Author  `json:"author"`
	Game   GameRef `json:"game"`
}

// RequestUploadInput asks for an upload authorization.
type RequestUploadInput struct {
	FileName string
	FileSize int64
	UserID   string
}

// UploadGrant is the direct-to-storage authorization returned to clients.
type UploadGrant struct {
	ID     string            `json:"id"`
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// CreatePostInput is a single submission in a post batch.
type CreatePostInput struct {
	UploadID    string   `json:"uploadId" validate:"required"`
	Title       string   `json:"title" validate:"max=50"`
	Caption     string   `json:"caption" validate:"max=200"`
	GameID      int64    `json:"gameId" validate:"min=1"`
	ImageWidth  int      `json:"imageWidth" validate:"min=720"`
	ImageHeight int      `json:"imageHeight" validate:"min=720"`
	Tags        []string `json:"tags" validate:"min=3,max=15,dive,min=3,max=15"`
}

// StoredImage is what the storage backend reports about uploaded bytes.
type StoredImage struct {
	ContentType string
	Width       int
	Height      int
}

// PresignedPost is a signed browser-style form upload.
type PresignedPost struct {
	URL    string
	Fields map[string]string
}

// Repository defines post persistence.
type Repository interface {
	// CreateSkippingDuplicates inserts posts, ignoring ids that already exist, and reports how many rows were written.
	CreateSkippingDuplicates(ctx context.Context, posts []*Post) (int64, error)
	FindViewByID(ctx context.Context, id string) (*PostView, error)
}

// UploadRepository defines the upload ledger.
type UploadRepository interface {
	Create(ctx context.Context, upload *Upload) error
	FindByIDs(ctx context.Context, ids []string) ([]*Upload, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	// FindOrphaned lists entries created before the cutoff that no post references.
	FindOrphaned(ctx context.Context, before time.Time, limit int) ([]*Upload, error)
}

// UserRepository keeps author rows in sync with authenticated principals.
type UserRepository interface {
	Upsert(ctx context.Context, author Author) error
}

// GameResolver resolves game ids locally or through the catalog.
type GameResolver interface {
	ResolveGames(ctx context.Context, ids []int64) (map[int64]*game.Game, error)
}

// Storage defines object storage operations used by the post workflow.
type Storage interface {
	PresignPost(ctx context.Context, key string, expires time.Duration, maxSize int64, fields map[string]string) (*PresignedPost, error)
	ProbeImage(ctx context.Context, key string) (*StoredImage, error)
	Delete(ctx context.Context, key string) error
}

// Transactor runs fn inside a database transaction carried by the context.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
