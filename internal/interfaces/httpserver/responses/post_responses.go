package responses

import (
	"time"

	"github.com/nollidnosnhoj/ggpx/internal/domain/post"
)

// UploadGrantResponse is the direct-to-storage authorization for one file.
type UploadGrantResponse struct {
	ID     string            `json:"id"`
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

func BuildUploadGrantResponse(grant *post.UploadGrant) *UploadGrantResponse {
	return &UploadGrantResponse{
		ID:     grant.ID,
		URL:    grant.URL,
		Fields: grant.Fields,
	}
}

type AuthorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type GameRefResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PostResponse is the public projection of a post.
type PostResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Caption       *string         `json:"caption"`
	ImageWidth    int             `json:"imageWidth"`
	ImageHeight   int             `json:"imageHeight"`
	FileExtension string          `json:"fileExtension"`
	FileType      string          `json:"fileType"`
	FileSize      int64           `json:"fileSize"`
	CreatedAt     time.Time       `json:"createdAt"`
	Author        AuthorResponse  `json:"author"`
	Game          GameRefResponse `json:"game"`
}

func BuildPostResponse(view *post.PostView) *PostResponse {
	var caption *string
	if view.Caption != "" {
		c := view.Caption
		caption = &c
	}
	return &PostResponse{
		ID:            view.ID,
		Title:         view.Title,
		Caption:       caption,
		ImageWidth:    view.ImageWidth,
		ImageHeight:   view.ImageHeight,
		FileExtension: view.FileExtension,
		FileType:      view.FileType,
		FileSize:      view.FileSize,
		CreatedAt:     view.CreatedAt,
		Author:        AuthorResponse{ID: view.Author.ID, Name: view.Author.Name},
		Game:          GameRefResponse{ID: view.Game.ID, Name: view.Game.Name, Slug: view.Game.Slug},
	}
}
