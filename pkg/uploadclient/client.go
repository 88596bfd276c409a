package uploadclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrNotUploaded = errors.New("entry has not finished uploading")

// Config points the client at a ggpx API.
type Config struct {
	BaseURL string
	// UserID and UserName are sent as gateway identity headers when Token is empty.
	UserID   string
	UserName string
	Token    string
	Timeout  time.Duration
}

// Grant is a direct-to-storage upload authorization.
type Grant struct {
	ID     string            `json:"id"`
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// PostSubmission describes a post for an uploaded entry.
type PostSubmission struct {
	Entry   *Entry
	Title   string
	Caption string
	GameID  int64
	Tags    []string
}

type createPostPayload struct {
	UploadID    string   `json:"uploadId"`
	Title       string   `json:"title,omitempty"`
	Caption     string   `json:"caption,omitempty"`
	GameID      int64    `json:"gameId"`
	ImageWidth  int      `json:"imageWidth"`
	ImageHeight int      `json:"imageHeight"`
	Tags        []string `json:"tags"`
}

// APIError is an error body returned by the ggpx API.
type APIError struct {
	Status    int    `json:"-"`
	Code      string `json:"code"`
	Type      string `json:"type"`
	Message   string `json:"error"`
	RequestID string `json:"request_id"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed with status %d: %s (%s)", e.Status, e.Message, e.Type)
}

// Client drives the upload-then-post workflow against the API and object storage.
type Client struct {
	api     *resty.Client
	storage *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	api := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("User-Agent", "ggpx-cli/1.0").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetError(&APIError{})
	if cfg.Token != "" {
		api.SetAuthToken(cfg.Token)
	} else {
		if cfg.UserID != "" {
			api.SetHeader("X-User-ID", cfg.UserID)
		}
		if cfg.UserName != "" {
			api.SetHeader("X-User-Name", cfg.UserName)
		}
	}

	return &Client{
		api: api,
		// uploads can be large; the request context bounds them instead
		storage: &http.Client{},
	}
}

// RequestUpload asks the API to authorize an upload of fileSize bytes.
func (c *Client) RequestUpload(ctx context.Context, fileName string, fileSize int64) (*Grant, error) {
	var grant Grant
	resp, err := c.api.R().
		SetContext(ctx).
		SetBody(map[string]any{"fileName": fileName, "fileSize": fileSize}).
		SetResult(&grant).
		Post("/v1/posts/uploads")
	if err != nil {
		return nil, fmt.Errorf("request upload: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &grant, nil
}

// Upload authorizes and streams entry to storage, reporting monotonic progress
// from 0 to 100. The entry is marked uploaded only once storage accepts it.
func (c *Client) Upload(ctx context.Context, entry *Entry, onProgress func(int)) (err error) {
	report := newProgressReporter(entry, onProgress)
	entry.Status = StatusUploading
	entry.Err = nil
	report(0)
	defer func() {
		if err != nil {
			entry.Status = StatusError
			entry.Err = err
		}
	}()

	grant, err := c.RequestUpload(ctx, entry.FileName, entry.FileSize)
	if err != nil {
		return err
	}

	f, err := os.Open(entry.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", entry.Path, err)
	}
	defer f.Close()

	body, err := newFormBody(grant.Fields, entry.FileName, entry.ContentType, f, entry.FileSize)
	if err != nil {
		return err
	}
	body.onRead = func(sent, total int64) {
		// 100 is reserved for the storage acknowledgement
		if pct := int(sent * 100 / total); pct < 100 {
			report(pct)
		} else {
			report(99)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, grant.URL, body)
	if err != nil {
		return fmt.Errorf("build storage request: %w", err)
	}
	req.ContentLength = body.Len()
	req.Header.Set("Content-Type", body.ContentType())

	resp, err := c.storage.Do(req)
	if err != nil {
		return fmt.Errorf("upload to storage: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("storage rejected upload with status %d: %s", resp.StatusCode, readSnippet(resp))
	}

	entry.UploadID = grant.ID
	entry.Status = StatusUploaded
	report(100)
	return nil
}

// CreatePosts submits one batch of posts for uploaded entries.
func (c *Client) CreatePosts(ctx context.Context, submissions []PostSubmission) error {
	payload := make([]createPostPayload, len(submissions))
	for i, sub := range submissions {
		if sub.Entry == nil || sub.Entry.Status != StatusUploaded || sub.Entry.UploadID == "" {
			name := ""
			if sub.Entry != nil {
				name = sub.Entry.FileName
			}
			return fmt.Errorf("%w: %s", ErrNotUploaded, name)
		}
		payload[i] = createPostPayload{
			UploadID:    sub.Entry.UploadID,
			Title:       sub.Title,
			Caption:     sub.Caption,
			GameID:      sub.GameID,
			ImageWidth:  sub.Entry.Width,
			ImageHeight: sub.Entry.Height,
			Tags:        sub.Tags,
		}
	}

	resp, err := c.api.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/v1/posts")
	if err != nil {
		return fmt.Errorf("create posts: %w", err)
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *resty.Response) error {
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.Status = resp.StatusCode()
	return apiErr
}

// newProgressReporter drops non-increasing values. The transport may read the
// body from its own goroutine.
func newProgressReporter(entry *Entry, onProgress func(int)) func(int) {
	var mu sync.Mutex
	last := -1
	return func(pct int) {
		mu.Lock()
		defer mu.Unlock()
		if pct <= last {
			return
		}
		last = pct
		entry.Progress = pct
		if onProgress != nil {
			onProgress(pct)
		}
	}
}

// Game is a catalog search hit.
type Game struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// SearchGames looks up catalog games by name.
func (c *Client) SearchGames(ctx context.Context, query string) ([]Game, error) {
	var games []Game
	resp, err := c.api.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		SetResult(&games).
		Get("/v1/games/search")
	if err != nil {
		return nil, fmt.Errorf("search games: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return games, nil
}
