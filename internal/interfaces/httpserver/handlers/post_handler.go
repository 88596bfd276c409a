package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nollidnosnhoj/ggpx/internal/domain/post"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/metrics"
	"github.com/nollidnosnhoj/ggpx/internal/interfaces/httpserver/middlewares"
	"github.com/nollidnosnhoj/ggpx/internal/interfaces/httpserver/requests"
	"github.com/nollidnosnhoj/ggpx/internal/interfaces/httpserver/responses"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

// PostService is the post workflow used by the HTTP layer.
type PostService interface {
	RequestUpload(ctx context.Context, in post.RequestUploadInput) (*post.UploadGrant, error)
	CreatePosts(ctx context.Context, author post.Author, inputs []post.CreatePostInput) error
	GetPost(ctx context.Context, id string) (*post.PostView, error)
}

// PostHandler exposes upload authorization and post endpoints.
type PostHandler struct {
	service PostService
	log     zerolog.Logger
}

func NewPostHandler(service PostService, log zerolog.Logger) *PostHandler {
	return &PostHandler{
		service: service,
		log:     log.With().Str("component", "post-handler").Logger(),
	}
}

// RequestUpload authorizes a direct-to-storage upload for the caller.
func (h *PostHandler) RequestUpload(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "9a1c3e5f-7b2d-4f60-8e1a-3c5e7a9b1d24")
		return
	}

	var req requests.RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid upload request: "+err.Error(), "ab2d4f6a-8c3e-4071-9f2b-4d6f8b0c2e35")
		return
	}

	_, contentType, _ := post.ContentTypeForFileName(req.FileName)
	grant, err := h.service.RequestUpload(c.Request.Context(), req.ToDomain(principal.ID))
	if err != nil {
		metrics.RecordUploadGrant(contentType, "error")
		responses.HandleError(c, err, "failed to authorize upload")
		return
	}
	metrics.RecordUploadGrant(contentType, "ok")

	c.JSON(http.StatusOK, responses.BuildUploadGrantResponse(grant))
}

// CreatePosts persists a batch of posts from consumed uploads.
func (h *PostHandler) CreatePosts(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "bc3e5a7b-9d4f-4182-a03c-5e7a9c1d3f46")
		return
	}

	var req []requests.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid post batch: "+err.Error(), "cd4f6b8c-0e5a-4293-b14d-6f8b0d2e4a57")
		return
	}

	author := post.Author{ID: principal.ID, Name: principal.Name}
	if err := h.service.CreatePosts(c.Request.Context(), author, requests.CreatePostsToDomain(req)); err != nil {
		metrics.RecordPostBatch("error", 0)
		responses.HandleError(c, err, "failed to create posts")
		return
	}
	metrics.RecordPostBatch("ok", len(req))

	c.Status(http.StatusNoContent)
}

// GetPost returns a post with its author and game.
func (h *PostHandler) GetPost(c *gin.Context) {
	view, err := h.service.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to load post")
		return
	}
	c.JSON(http.StatusOK, responses.BuildPostResponse(view))
}
