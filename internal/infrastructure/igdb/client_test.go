package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nollidnosnhoj/ggpx/internal/domain/game"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/cache"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

const validGamesBody = `[
	{"id": 1, "name": "Hollow Knight", "slug": "hollow-knight", "cover": {"id": 10, "image_id": "co1", "url": "//img/co1.jpg", "checksum": "aaa"}},
	{"id": 2, "name": "Celeste", "slug": "celeste", "cover": {"id": 20, "image_id": "co2", "url": "//img/co2.jpg", "checksum": "bbb"}}
]`

type fakeCatalog struct {
	t           *testing.T
	tokenCalls  atomic.Int32
	gamesCalls  atomic.Int32
	lastBody    atomic.Value
	lastAuth    atomic.Value
	gamesStatus func(call int32) (int, string)
	tokenBody   func(call int32) string
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	return &fakeCatalog{
		t: t,
		gamesStatus: func(int32) (int, string) {
			return http.StatusOK, validGamesBody
		},
		tokenBody: func(call int32) string {
			return fmt.Sprintf(`{"access_token":"tok%d","expires_in":3600,"token_type":"bearer"}`, call)
		},
	}
}

func (f *fakeCatalog) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		call := f.tokenCalls.Add(1)
		assert.Equal(f.t, http.MethodPost, r.Method)
		assert.Equal(f.t, "client", r.URL.Query().Get("client_id"))
		assert.Equal(f.t, "secret", r.URL.Query().Get("client_secret"))
		assert.Equal(f.t, "client_credentials", r.URL.Query().Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, f.tokenBody(call))
	})
	mux.HandleFunc("/v4/games", func(w http.ResponseWriter, r *http.Request) {
		call := f.gamesCalls.Add(1)
		assert.Equal(f.t, "client", r.Header.Get("Client-ID"))
		body, _ := io.ReadAll(r.Body)
		f.lastBody.Store(string(body))
		f.lastAuth.Store(r.Header.Get("Authorization"))
		status, payload := f.gamesStatus(call)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	})
	srv := httptest.NewServer(mux)
	f.t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, store cache.Store) (*Client, *[]time.Duration) {
	t.Helper()
	client, err := NewClient(Config{
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      srv.URL + "/v4",
		TokenURL:     srv.URL + "/oauth2/token",
		Timeout:      5 * time.Second,
		Backoff:      BackoffConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond, Factor: 2},
	}, store, zerolog.Nop())
	require.NoError(t, err)

	waits := &[]time.Duration{}
	client.wait = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return client, waits
}

func newStore(t *testing.T) *cache.MemoryCache {
	t.Helper()
	store, err := cache.NewMemoryCache(64)
	require.NoError(t, err)
	return store
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{ClientID: "id"}, newStore(t), zerolog.Nop())
	require.Error(t, err)
	_, err = NewClient(Config{ClientID: "id", ClientSecret: "s"}, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestGetGamesWithNoIDsSkipsNetwork(t *testing.T) {
	fake := newFakeCatalog(t)
	client, _ := newTestClient(t, fake.server(), newStore(t))

	games, err := client.GetGames(context.Background(), game.GetGamesQuery{})
	require.NoError(t, err)
	assert.Empty(t, games)
	assert.Zero(t, fake.tokenCalls.Load())
	assert.Zero(t, fake.gamesCalls.Load())
}

func TestGetGamesSendsQueryAndCachesToken(t *testing.T) {
	fake := newFakeCatalog(t)
	store := newStore(t)
	client, _ := newTestClient(t, fake.server(), store)
	ctx := context.Background()

	games, err := client.GetGames(ctx, game.GetGamesQuery{IDs: []int64{1, 2}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Hollow Knight", games[0].Name)
	assert.Equal(t, "co2", games[1].Cover.ImageID)

	body := fake.lastBody.Load().(string)
	assert.Contains(t, body, "fields name, slug, cover.id, cover.image_id, cover.url, cover.checksum;")
	assert.Contains(t, body, "where id = (1,2) & version_parent = null & parent_game = null & (category = 0 | category = 9);")
	assert.Contains(t, body, "limit 2;")
	assert.Equal(t, "Bearer tok1", fake.lastAuth.Load())

	_, err = client.GetGames(ctx, game.GetGamesQuery{IDs: []int64{1}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, fake.tokenCalls.Load())

	cached, err := cache.GetJSON[accessToken](ctx, store, TokenCacheKey)
	require.NoError(t, err)
	assert.Equal(t, "tok1", cached.AccessToken)
	assert.EqualValues(t, 3600, cached.ExpiresIn)
}

func TestUnauthorizedThenSuccessRefreshesTokenOnce(t *testing.T) {
	fake := newFakeCatalog(t)
	fake.gamesStatus = func(call int32) (int, string) {
		if call == 1 {
			return http.StatusUnauthorized, `{"message":"unauthorized"}`
		}
		return http.StatusOK, validGamesBody
	}
	store := newStore(t)
	client, _ := newTestClient(t, fake.server(), store)
	ctx := context.Background()

	games, err := client.GetGames(ctx, game.GetGamesQuery{IDs: []int64{1, 2}})
	require.NoError(t, err)
	assert.Len(t, games, 2)
	assert.EqualValues(t, 2, fake.tokenCalls.Load())
	assert.EqualValues(t, 2, fake.gamesCalls.Load())
	assert.Equal(t, "Bearer tok2", fake.lastAuth.Load())

	cached, err := cache.GetJSON[accessToken](ctx, store, TokenCacheKey)
	require.NoError(t, err)
	assert.Equal(t, "tok2", cached.AccessToken)
}

func TestConsecutiveAuthFailuresAreFatal(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			fake := newFakeCatalog(t)
			fake.gamesStatus = func(int32) (int, string) { return status, `{}` }
			client, _ := newTestClient(t, fake.server(), newStore(t))

			_, err := client.GetGames(context.Background(), game.GetGamesQuery{IDs: []int64{1}})
			require.Error(t, err)
			assert.True(t, errors.Is(err, game.ErrCatalogAuth))
			assert.EqualValues(t, 2, fake.gamesCalls.Load())
			assert.EqualValues(t, 2, fake.tokenCalls.Load())
		})
	}
}

func TestRateLimitBacksOffThenSucceeds(t *testing.T) {
	fake := newFakeCatalog(t)
	fake.gamesStatus = func(call int32) (int, string) {
		if call <= 2 {
			return http.StatusTooManyRequests, `{}`
		}
		return http.StatusOK, validGamesBody
	}
	client, waits := newTestClient(t, fake.server(), newStore(t))

	games, err := client.GetGames(context.Background(), game.GetGamesQuery{IDs: []int64{1, 2}})
	require.NoError(t, err)
	assert.Len(t, games, 2)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, *waits)
}

func TestRateLimitIsBounded(t *testing.T) {
	fake := newFakeCatalog(t)
	fake.gamesStatus = func(int32) (int, string) { return http.StatusTooManyRequests, `{}` }
	client, waits := newTestClient(t, fake.server(), newStore(t))

	_, err := client.GetGames(context.Background(), game.GetGamesQuery{IDs: []int64{1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, game.ErrCatalogRateLimited))
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
	assert.EqualValues(t, 3, fake.gamesCalls.Load())
	assert.Len(t, *waits, 2)
}

func TestRateLimitWaitHonoursCancellation(t *testing.T) {
	fake := newFakeCatalog(t)
	fake.gamesStatus = func(int32) (int, string) { return http.StatusTooManyRequests, `{}` }
	client, _ := newTestClient(t, fake.server(), newStore(t))
	client.wait = waitFor
	client.cfg.Backoff = BackoffConfig{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Factor: 2}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.GetGames(ctx, game.GetGamesQuery{IDs: []int64{1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestMalformedShapeIsQueryError(t *testing.T) {
	fake := newFakeCatalog(t)
	fake.gamesStatus = func(int32) (int, string) {
		return http.StatusOK, `[{"id": 1, "name": "No Cover", "slug": "no-cover"}]`
	}
	client, _ := newTestClient(t, fake.server(), newStore(t))

	_, err := client.GetGames(context.Background(), game.GetGamesQuery{IDs: []int64{1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, game.ErrCatalogQuery))
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
	assert.EqualValues(t, 1, fake.gamesCalls.Load())
}

func TestServerErrorIsRequestError(t *testing.T) {
	fake := newFakeCatalog(t)
	fake.gamesStatus = func(int32) (int, string) { return http.StatusInternalServerError, `oops` }
	client, _ := newTestClient(t, fake.server(), newStore(t))

	_, err := client.GetGames(context.Background(), game.GetGamesQuery{IDs: []int64{1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, game.ErrCatalogRequest))
	assert.EqualValues(t, 1, fake.gamesCalls.Load())
}

func TestMalformedTokenIsAuthError(t *testing.T) {
	fake := newFakeCatalog(t)
	fake.tokenBody = func(int32) string { return `{"access_token":""}` }
	client, _ := newTestClient(t, fake.server(), newStore(t))

	_, err := client.GetGames(context.Background(), game.GetGamesQuery{IDs: []int64{1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, game.ErrCatalogAuth))
	assert.Zero(t, fake.gamesCalls.Load())
}

func TestSearchGamesServesRepeatQueriesFromCache(t *testing.T) {
	fake := newFakeCatalog(t)
	store := newStore(t)
	client, _ := newTestClient(t, fake.server(), store)
	ctx := context.Background()

	first, err := client.SearchGames(ctx, `zelda "botw"`, 10)
	require.NoError(t, err)
	require.Len(t, first, 2)
	body := fake.lastBody.Load().(string)
	assert.True(t, strings.HasPrefix(body, `search "zelda \"botw\"";`))
	assert.Contains(t, body, "limit 10;")

	second, err := client.SearchGames(ctx, `zelda "botw"`, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, fake.gamesCalls.Load())

	raw, err := store.Get(ctx, SearchCachePrefix+`zelda "botw"`)
	require.NoError(t, err)
	var cached []game.Game
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, first, cached)
}

func TestSearchGamesCachesEmptyResults(t *testing.T) {
	fake := newFakeCatalog(t)
	fake.gamesStatus = func(int32) (int, string) { return http.StatusOK, `[]` }
	client, _ := newTestClient(t, fake.server(), newStore(t))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		games, err := client.SearchGames(ctx, "nothing", 10)
		require.NoError(t, err)
		assert.Empty(t, games)
	}
	assert.EqualValues(t, 1, fake.gamesCalls.Load())
}

func TestBackoffDelayIsExponentialAndCapped(t *testing.T) {
	b := BackoffConfig{MaxAttempts: 10, InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Factor: 2}.withDefaults()

	assert.Equal(t, 100*time.Millisecond, b.delay(1, ""))
	assert.Equal(t, 200*time.Millisecond, b.delay(2, ""))
	assert.Equal(t, 800*time.Millisecond, b.delay(4, ""))
	assert.Equal(t, time.Second, b.delay(5, ""))
	assert.Equal(t, time.Second, b.delay(9, ""))
	assert.Equal(t, time.Second, b.delay(1, "30"))
	assert.Equal(t, 100*time.Millisecond, b.delay(1, "soon"))
}

func TestBuildGamesQueryOmitsEmptyPaging(t *testing.T) {
	q := buildGamesQuery([]int64{7}, 0, 0)
	assert.NotContains(t, q, "limit")
	assert.NotContains(t, q, "offset")

	q = buildGamesQuery([]int64{7, 8}, 5, 2)
	assert.Contains(t, q, "where id = (7,8)")
	assert.Contains(t, q, "limit 2;")
	assert.Contains(t, q, "offset 5;")
}
