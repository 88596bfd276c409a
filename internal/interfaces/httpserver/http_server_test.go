package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nollidnosnhoj/ggpx/internal/config"
	"github.com/nollidnosnhoj/ggpx/internal/domain/game"
	"github.com/nollidnosnhoj/ggpx/internal/domain/post"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/auth"
	"github.com/nollidnosnhoj/ggpx/internal/interfaces/httpserver"
	"github.com/nollidnosnhoj/ggpx/internal/interfaces/httpserver/responses"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

type mockPostService struct {
	RequestUploadFunc func(ctx context.Context, in post.RequestUploadInput) (*post.UploadGrant, error)
	CreatePostsFunc   func(ctx context.Context, author post.Author, inputs []post.CreatePostInput) error
	GetPostFunc       func(ctx context.Context, id string) (*post.PostView, error)
}

func (m *mockPostService) RequestUpload(ctx context.Context, in post.RequestUploadInput) (*post.UploadGrant, error) {
	return m.RequestUploadFunc(ctx, in)
}

func (m *mockPostService) CreatePosts(ctx context.Context, author post.Author, inputs []post.CreatePostInput) error {
	return m.CreatePostsFunc(ctx, author, inputs)
}

func (m *mockPostService) GetPost(ctx context.Context, id string) (*post.PostView, error) {
	return m.GetPostFunc(ctx, id)
}

type mockGameService struct {
	SearchGamesFunc func(ctx context.Context, query string) ([]game.Game, error)
	ListGamesFunc   func(ctx context.Context, take int) ([]*game.Game, error)
}

func (m *mockGameService) SearchGames(ctx context.Context, query string) ([]game.Game, error) {
	return m.SearchGamesFunc(ctx, query)
}

func (m *mockGameService) ListGames(ctx context.Context, take int) ([]*game.Game, error) {
	return m.ListGamesFunc(ctx, take)
}

func newTestServer(t *testing.T, posts *mockPostService, games *mockGameService, checks map[string]httpserver.ReadinessCheck) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{ServiceName: "ggpx-test", Environment: "test", RequestTimeout: 5 * time.Second}
	validator, err := auth.NewValidator(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	return httpserver.New(cfg, zerolog.Nop(), posts, games, validator, checks).Handler()
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) responses.ErrorResponse {
	t.Helper()
	var resp responses.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

var asUser = map[string]string{"X-User-ID": "user-1", "X-User-Name": "Sam"}

func TestRequestUploadRequiresIdentity(t *testing.T) {
	h := newTestServer(t, &mockPostService{}, &mockGameService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/v1/posts/uploads", map[string]any{"fileName": "a.png", "fileSize": 10}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Type)
}

func TestRequestUploadReturnsGrant(t *testing.T) {
	var got post.RequestUploadInput
	posts := &mockPostService{RequestUploadFunc: func(_ context.Context, in post.RequestUploadInput) (*post.UploadGrant, error) {
		got = in
		return &post.UploadGrant{ID: "abcd1234", URL: "https://bucket.test", Fields: map[string]string{"key": "uploads/posts/original/abcd1234.png"}}, nil
	}}
	h := newTestServer(t, posts, &mockGameService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/v1/posts/uploads", map[string]any{"fileName": "shot.png", "fileSize": 2048}, asUser)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, post.RequestUploadInput{FileName: "shot.png", FileSize: 2048, UserID: "user-1"}, got)
	assert.JSONEq(t, `{"id":"abcd1234","url":"https://bucket.test","fields":{"key":"uploads/posts/original/abcd1234.png"}}`, rec.Body.String())
}

func TestRequestUploadRejectsBadBody(t *testing.T) {
	h := newTestServer(t, &mockPostService{}, &mockGameService{}, nil)

	for _, body := range []map[string]any{
		{"fileName": "a.png"},
		{"fileName": "a.png", "fileSize": 1_000_000_001},
		{"fileSize": 10},
	} {
		rec := doRequest(t, h, http.MethodPost, "/v1/posts/uploads", body, asUser)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION", decodeError(t, rec).Type)
	}
}

func TestRequestUploadMapsDomainErrors(t *testing.T) {
	posts := &mockPostService{RequestUploadFunc: func(ctx context.Context, _ post.RequestUploadInput) (*post.UploadGrant, error) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			`unsupported file type for "a.txt"`, post.ErrInvalidFileType, "11111111-2222-4333-8444-555555555555")
	}}
	h := newTestServer(t, posts, &mockGameService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/v1/posts/uploads", map[string]any{"fileName": "a.txt", "fileSize": 10},
		map[string]string{"X-User-ID": "user-1", "X-Request-Id": "req-42"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "11111111-2222-4333-8444-555555555555", resp.Code)
	assert.Equal(t, "VALIDATION", resp.Type)
	assert.Equal(t, `unsupported file type for "a.txt"`, resp.Error)
	assert.Equal(t, "req-42", resp.RequestID)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestCreatePostsPassesAuthorAndBatch(t *testing.T) {
	var gotAuthor post.Author
	var gotInputs []post.CreatePostInput
	posts := &mockPostService{CreatePostsFunc: func(_ context.Context, author post.Author, inputs []post.CreatePostInput) error {
		gotAuthor, gotInputs = author, inputs
		return nil
	}}
	h := newTestServer(t, posts, &mockGameService{}, nil)

	body := []map[string]any{{
		"uploadId":    "abcd1234",
		"gameId":      42,
		"imageWidth":  1920,
		"imageHeight": 1080,
		"tags":        []string{"boss", "fight", "nofx"},
	}}
	rec := doRequest(t, h, http.MethodPost, "/v1/posts", body, asUser)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, post.Author{ID: "user-1", Name: "Sam"}, gotAuthor)
	require.Len(t, gotInputs, 1)
	assert.Equal(t, post.CreatePostInput{
		UploadID:    "abcd1234",
		GameID:      42,
		ImageWidth:  1920,
		ImageHeight: 1080,
		Tags:        []string{"boss", "fight", "nofx"},
	}, gotInputs[0])
}

func TestCreatePostsRejectsNonArrayBody(t *testing.T) {
	h := newTestServer(t, &mockPostService{}, &mockGameService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/v1/posts", map[string]any{"uploadId": "x"}, asUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePostsConflict(t *testing.T) {
	posts := &mockPostService{CreatePostsFunc: func(ctx context.Context, _ post.Author, _ []post.CreatePostInput) error {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			"one or more uploads were already consumed", post.ErrUploadConsumed, "22222222-3333-4444-8555-666666666666")
	}}
	h := newTestServer(t, posts, &mockGameService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/v1/posts", []map[string]any{{"uploadId": "x"}}, asUser)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decodeError(t, rec).Type)
}

func TestCreatePostsHidesInternalDetail(t *testing.T) {
	posts := &mockPostService{CreatePostsFunc: func(ctx context.Context, _ post.Author, _ []post.CreatePostInput) error {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"pq: relation posts does not exist", errors.New("db"), "33333333-4444-4555-8666-777777777777")
	}}
	h := newTestServer(t, posts, &mockGameService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/v1/posts", []map[string]any{{"uploadId": "x"}}, asUser)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "failed to create posts", resp.Error)
	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestGetPostProjection(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	posts := &mockPostService{GetPostFunc: func(_ context.Context, id string) (*post.PostView, error) {
		assert.Equal(t, "abcd1234", id)
		return &post.PostView{
			Post: post.Post{
				ID: "abcd1234", Title: "boss fight", ImageWidth: 1920, ImageHeight: 1080,
				FileExtension: ".png", FileType: "image/png", FileSize: 2048, AuthorID: "user-1", GameID: 42, CreatedAt: created,
			},
			Author: post.Author{ID: "user-1", Name: "Sam"},
			Game:   post.GameRef{ID: 42, Name: "Celeste", Slug: "celeste"},
		}, nil
	}}
	h := newTestServer(t, posts, &mockGameService{}, nil)

	rec := doRequest(t, h, http.MethodGet, "/v1/posts/abcd1234", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"id": "abcd1234",
		"title": "boss fight",
		"caption": null,
		"imageWidth": 1920,
		"imageHeight": 1080,
		"fileExtension": ".png",
		"fileType": "image/png",
		"fileSize": 2048,
		"createdAt": "2024-05-01T12:00:00Z",
		"author": {"id": "user-1", "name": "Sam"},
		"game": {"id": 42, "name": "Celeste", "slug": "celeste"}
	}`, rec.Body.String())
}

func TestGetPostNotFound(t *testing.T) {
	posts := &mockPostService{GetPostFunc: func(ctx context.Context, _ string) (*post.PostView, error) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"post not found", post.ErrPostNotFound, "44444444-5555-4666-8777-888888888888")
	}}
	h := newTestServer(t, posts, &mockGameService{}, nil)

	rec := doRequest(t, h, http.MethodGet, "/v1/posts/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Type)
}

func TestSearchGames(t *testing.T) {
	games := &mockGameService{SearchGamesFunc: func(_ context.Context, query string) ([]game.Game, error) {
		assert.Equal(t, "celeste", query)
		return []game.Game{{ID: 1, Name: "Celeste", Slug: "celeste", Cover: game.Cover{ID: 2, ImageID: "co1", URL: "//img", Checksum: "c"}}}, nil
	}}
	h := newTestServer(t, &mockPostService{}, games, nil)

	rec := doRequest(t, h, http.MethodGet, "/v1/games/search?query=celeste", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Celeste","slug":"celeste","cover":{"id":2,"imageId":"co1","url":"//img","checksum":"c"}}]`, rec.Body.String())
}

func TestSearchGamesCatalogFailureIsBadGateway(t *testing.T) {
	games := &mockGameService{SearchGamesFunc: func(ctx context.Context, _ string) ([]game.Game, error) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"catalog still rate limited after 5 attempts", game.ErrCatalogRateLimited, "55555555-6666-4777-8888-999999999999")
	}}
	h := newTestServer(t, &mockPostService{}, games, nil)

	rec := doRequest(t, h, http.MethodGet, "/v1/games/search?query=x", nil, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "EXTERNAL", decodeError(t, rec).Type)
}

func TestListGamesTake(t *testing.T) {
	var gotTake int
	games := &mockGameService{ListGamesFunc: func(_ context.Context, take int) ([]*game.Game, error) {
		gotTake = take
		return []*game.Game{{ID: 1, Name: "Celeste", Slug: "celeste"}}, nil
	}}
	h := newTestServer(t, &mockPostService{}, games, nil)

	rec := doRequest(t, h, http.MethodGet, "/v1/games?take=5", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, gotTake)
	assert.JSONEq(t, `[{"id":1,"name":"Celeste","slug":"celeste"}]`, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/v1/games", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, game.DefaultListTake, gotTake)

	rec = doRequest(t, h, http.MethodGet, "/v1/games?take=lots", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadiness(t *testing.T) {
	healthy := newTestServer(t, &mockPostService{}, &mockGameService{}, map[string]httpserver.ReadinessCheck{
		"database": func(context.Context) error { return nil },
	})
	rec := doRequest(t, healthy, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := newTestServer(t, &mockPostService{}, &mockGameService{}, map[string]httpserver.ReadinessCheck{
		"database": func(context.Context) error { return errors.New("connection refused") },
	})
	rec = doRequest(t, failing, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	rec = doRequest(t, healthy, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
