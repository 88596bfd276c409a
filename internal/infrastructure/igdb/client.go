package igdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/nollidnosnhoj/ggpx/internal/config"
	"github.com/nollidnosnhoj/ggpx/internal/domain/game"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/cache"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/metrics"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/observability"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

const (
	TokenCacheKey     = "catalog:access-token"
	SearchCachePrefix = "catalog:search:"
	SearchCacheTTL    = 7 * 24 * time.Hour

	defaultBaseURL  = "https://api.igdb.com/v4"
	defaultTokenURL = "https://id.twitch.tv/oauth2/token"
	tokenExpirySkew = 60 * time.Second
	gamesResource   = "games"
)

// Config captures the knobs for the catalog client.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	Timeout      time.Duration
	Backoff      BackoffConfig
}

// Client talks to the IGDB catalog with cached Twitch app credentials.
type Client struct {
	cfg   Config
	api   *resty.Client
	auth  *resty.Client
	cache cache.Store
	log   zerolog.Logger
	wait  func(ctx context.Context, d time.Duration) error
}

var _ game.Catalog = (*Client)(nil)

func NewClient(cfg Config, store cache.Store, log zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("catalog client id and secret are required")
	}
	if store == nil {
		return nil, errors.New("catalog client requires a cache store")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.Backoff = cfg.Backoff.withDefaults()

	api := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("User-Agent", "ggpx/1.0").
		SetHeader("Client-ID", cfg.ClientID).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

	auth := resty.New().
		SetHeader("User-Agent", "ggpx/1.0").
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

	return &Client{
		cfg:   cfg,
		api:   api,
		auth:  auth,
		cache: store,
		log:   log.With().Str("component", "igdb-client").Logger(),
		wait:  waitFor,
	}, nil
}

// NewClientFromConfig builds the client from service configuration.
func NewClientFromConfig(cfg *config.Config, store cache.Store, log zerolog.Logger) (*Client, error) {
	return NewClient(Config{
		ClientID:     cfg.TwitchClientID,
		ClientSecret: cfg.TwitchClientSecret,
		BaseURL:      cfg.IGDBBaseURL,
		TokenURL:     cfg.TwitchTokenURL,
		Timeout:      cfg.IGDBHTTPTimeout,
	}, store, log)
}

// GetGames fetches top-level games by id.
func (c *Client) GetGames(ctx context.Context, query game.GetGamesQuery) (games []game.Game, err error) {
	if len(query.IDs) == 0 {
		return []game.Game{}, nil
	}

	ctx, span := observability.StartCatalogSpan(ctx, "games.get")
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	body, err := c.post(ctx, gamesResource, buildGamesQuery(query.IDs, query.Offset, query.Limit))
	if err != nil {
		return nil, err
	}
	games, err = decodeGames(body)
	if err != nil {
		return nil, c.queryError(ctx, err)
	}
	return games, nil
}

// SearchGames runs a catalog text search, answering from cache when possible.
func (c *Client) SearchGames(ctx context.Context, query string, limit int) (games []game.Game, err error) {
	key := SearchCachePrefix + query
	cached, err := cache.GetJSON[[]game.Game](ctx, c.cache, key)
	switch {
	case err == nil:
		metrics.RecordCacheLookup("search", true)
		return cached, nil
	case !errors.Is(err, cache.ErrMiss):
		c.log.Warn().Err(err).Str("key", key).Msg("search cache read failed")
	}
	metrics.RecordCacheLookup("search", false)

	ctx, span := observability.StartCatalogSpan(ctx, "games.search")
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	body, err := c.post(ctx, gamesResource, buildSearchQuery(query, limit))
	if err != nil {
		return nil, err
	}
	games, err = decodeGames(body)
	if err != nil {
		return nil, c.queryError(ctx, err)
	}

	if err := cache.SetJSON(ctx, c.cache, key, games, SearchCacheTTL); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("search cache write failed")
	}
	return games, nil
}

// post sends an apicalypse body to resource. An auth rejection evicts the
// cached token and retries exactly once; 429 responses back off up to the
// configured attempt limit.
func (c *Client) post(ctx context.Context, resource, body string) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	refreshed := false
	rateLimited := 0
	for {
		start := time.Now()
		resp, err := c.api.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetHeader("Content-Type", "text/plain").
			SetBody(body).
			Post("/" + resource)
		if err != nil {
			metrics.RecordCatalogRequest(resource, "error", time.Since(start))
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
				"catalog request failed", errors.Join(game.ErrCatalogRequest, err), "0c2e4a6b-8d1f-4379-a5c7-e9b1d3f5a702")
		}

		status := resp.StatusCode()
		metrics.RecordCatalogRequest(resource, fmt.Sprintf("%d", status), time.Since(start))

		switch {
		case status >= 200 && status < 300:
			return resp.Body(), nil

		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			if refreshed {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
					fmt.Sprintf("catalog rejected refreshed credentials (status %d)", status), game.ErrCatalogAuth, "1d3f5b7c-9e2a-4480-b6d8-fac2e4a6b813")
			}
			refreshed = true
			observability.AddRetryEvent(trace.SpanFromContext(ctx), 1, "token_rejected")
			c.log.Info().Int("status", status).Msg("catalog token rejected, refreshing")
			if err := c.cache.Delete(ctx, TokenCacheKey); err != nil {
				c.log.Warn().Err(err).Msg("failed to evict cached catalog token")
			}
			token, err = c.refreshToken(ctx)
			if err != nil {
				return nil, err
			}

		case status == http.StatusTooManyRequests:
			rateLimited++
			if rateLimited >= c.cfg.Backoff.MaxAttempts {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
					fmt.Sprintf("catalog still rate limited after %d attempts", rateLimited), game.ErrCatalogRateLimited, "2e4a6c8d-0f3b-4591-87e9-0bd3f5b7c924")
			}
			delay := c.cfg.Backoff.delay(rateLimited, resp.Header().Get("Retry-After"))
			observability.AddRetryEvent(trace.SpanFromContext(ctx), rateLimited, "rate_limited")
			c.log.Warn().Int("attempt", rateLimited).Dur("retry_delay", delay).Msg("catalog rate limited, backing off")
			if err := c.wait(ctx, delay); err != nil {
				return nil, err
			}

		default:
			c.log.Error().Int("status", status).Str("response", truncate(resp.String(), 512)).Msg("catalog API error")
			return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
				fmt.Sprintf("catalog request failed with status %d", status), game.ErrCatalogRequest, "3f5b7d9e-1a4c-46a2-98fa-1ce4a6c8da35")
		}
	}
}

// accessToken returns the cached token or obtains a new one.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	cached, err := cache.GetJSON[accessToken](ctx, c.cache, TokenCacheKey)
	if err == nil && cached.AccessToken != "" {
		metrics.RecordCacheLookup("token", true)
		return cached.AccessToken, nil
	}
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		c.log.Warn().Err(err).Msg("token cache read failed")
	}
	metrics.RecordCacheLookup("token", false)
	return c.refreshToken(ctx)
}

// refreshToken performs the client-credentials exchange and caches the result.
// Concurrent refreshes are last-write-wins.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	start := time.Now()
	resp, err := c.auth.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
			"grant_type":    "client_credentials",
		}).
		Post(c.cfg.TokenURL)
	if err != nil {
		metrics.RecordCatalogRequest("token", "error", time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"catalog token request failed", errors.Join(game.ErrCatalogAuth, err), "4a6c8e0f-2b5d-47b3-89ab-2df5b7d9eb46")
	}
	metrics.RecordCatalogRequest("token", fmt.Sprintf("%d", resp.StatusCode()), time.Since(start))
	if resp.IsError() {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("catalog token request failed with status %d", resp.StatusCode()), game.ErrCatalogAuth, "5b7d9f1a-3c6e-48c4-9abc-3e06c8eafc57")
	}

	token, err := decodeToken(resp.Body())
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"catalog token response was malformed", errors.Join(game.ErrCatalogAuth, err), "6c8e0a2b-4d7f-49d5-8bcd-4f17d9fb0d68")
	}

	ttl := time.Duration(token.ExpiresIn)*time.Second - tokenExpirySkew
	if ttl < tokenExpirySkew {
		ttl = tokenExpirySkew
	}
	if err := cache.SetJSON(ctx, c.cache, TokenCacheKey, token, ttl); err != nil {
		c.log.Warn().Err(err).Msg("failed to cache catalog token")
	}
	return token.AccessToken, nil
}

func (c *Client) queryError(ctx context.Context, err error) error {
	c.log.Error().Err(err).Msg("catalog response did not match expected shape")
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation,
		"catalog response did not match expected shape", errors.Join(game.ErrCatalogQuery, err), "7d9f1b3c-5e8a-4ae6-9cde-5a28eafc1e79")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
