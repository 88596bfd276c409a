package game

import "context"

// Cover is the catalog cover art reference attached to a game.
type Cover struct {
	ID       int64  `json:"id"`
	ImageID  string `json:"image_id"`
	URL      string `json:"url"`
	Checksum string `json:"checksum"`
}

// Game is a catalog title. IDs are assigned by the catalog and never change.
type Game struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Cover Cover  `json:"cover"`
}

// GetGamesQuery selects catalog games by id.
type GetGamesQuery struct {
	IDs    []int64
	Offset int
	Limit  int
}

// Repository defines local game persistence.
type Repository interface {
	FindByIDs(ctx context.Context, ids []int64) ([]*Game, error)
	List(ctx context.Context, take int) ([]*Game, error)
	// InsertMissing stores games whose id is not yet present and leaves existing rows untouched.
	InsertMissing(ctx context.Context, games []*Game) error
}

// Catalog is the external game database.
type Catalog interface {
	GetGames(ctx context.Context, query GetGamesQuery) ([]Game, error)
	SearchGames(ctx context.Context, query string, limit int) ([]Game, error)
}
