package requests

import (
	"github.com/nollidnosnhoj/ggpx/internal/domain/post"
)

// RequestUploadRequest asks for a direct upload authorization
type RequestUploadRequest struct {
	FileName string `json:"fileName" binding:"required"`
	FileSize int64  `json:"fileSize" binding:"required,min=1,max=1000000000"`
}

// ToDomain converts request to domain input
func (r *RequestUploadRequest) ToDomain(userID string) post.RequestUploadInput {
	return post.RequestUploadInput{
		FileName: r.FileName,
		FileSize: r.FileSize,
		UserID:   userID,
	}
}

// CreatePostRequest is one item of a post batch. Field rules are enforced by
// the post service so batch errors are reported uniformly.
type CreatePostRequest struct {
	UploadID    string   `json:"uploadId"`
	Title       string   `json:"title"`
	Caption     string   `json:"caption"`
	GameID      int64    `json:"gameId"`
	ImageWidth  int      `json:"imageWidth"`
	ImageHeight int      `json:"imageHeight"`
	Tags        []string `json:"tags"`
}

// CreatePostsToDomain converts a batch request to domain inputs
func CreatePostsToDomain(reqs []CreatePostRequest) []post.CreatePostInput {
	out := make([]post.CreatePostInput, len(reqs))
	for i, r := range reqs {
		out[i] = post.CreatePostInput{
			UploadID:    r.UploadID,
			Title:       r.Title,
			Caption:     r.Caption,
			GameID:      r.GameID,
			ImageWidth:  r.ImageWidth,
			ImageHeight: r.ImageHeight,
			Tags:        r.Tags,
		}
	}
	return out
}
