package game

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

const (
	SearchLimit     = 10
	DefaultListTake = 10
	MaxListTake     = 100
)

// Service resolves games locally first and falls back to the catalog.
type Service struct {
	repo    Repository
	catalog Catalog
	log     zerolog.Logger
}

func NewService(repo Repository, catalog Catalog, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		log:     log.With().Str("component", "game-service").Logger(),
	}
}

// ResolveGames returns every requested game it can find, keyed by id. Ids
// unknown locally are fetched from the catalog in a single batched request.
// Ids found nowhere are absent from the result.
func (s *Service) ResolveGames(ctx context.Context, ids []int64) (map[int64]*Game, error) {
	wanted := distinctIDs(ids)
	resolved := make(map[int64]*Game, len(wanted))
	if len(wanted) == 0 {
		return resolved, nil
	}

	local, err := s.repo.FindByIDs(ctx, wanted)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load local games")
	}
	for _, g := range local {
		resolved[g.ID] = g
	}

	missing := make([]int64, 0, len(wanted)-len(resolved))
	for _, id := range wanted {
		if _, ok := resolved[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return resolved, nil
	}

	fetched, err := s.catalog.GetGames(ctx, GetGamesQuery{IDs: missing, Limit: len(missing)})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to fetch games from catalog")
	}
	for i := range fetched {
		g := fetched[i]
		resolved[g.ID] = &g
	}

	s.log.Debug().
		Int("requested", len(wanted)).
		Int("local", len(local)).
		Int("catalog", len(fetched)).
		Msg("resolved games")
	return resolved, nil
}

// SearchGames runs a free-text catalog search.
func (s *Service) SearchGames(ctx context.Context, query string) ([]Game, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"query is required", ErrInvalidQuery, "2f6a1c0e-5d7b-4e2a-9c31-7b8d4e6f0a12")
	}
	games, err := s.catalog.SearchGames(ctx, query, SearchLimit)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to search games")
	}
	return games, nil
}

// ListGames returns locally stored games ordered by name.
func (s *Service) ListGames(ctx context.Context, take int) ([]*Game, error) {
	if take <= 0 {
		take = DefaultListTake
	}
	if take > MaxListTake {
		take = MaxListTake
	}
	games, err := s.repo.List(ctx, take)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list games")
	}
	return games, nil
}

func distinctIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
