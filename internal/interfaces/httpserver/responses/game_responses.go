package responses

import (
	"github.com/nollidnosnhoj/ggpx/internal/domain/game"
)

type CoverResponse struct {
	ID       int64  `json:"id"`
	ImageID  string `json:"imageId"`
	URL      string `json:"url"`
	Checksum string `json:"checksum"`
}

// GameResponse is a catalog search hit.
type GameResponse struct {
	ID    int64         `json:"id"`
	Name  string        `json:"name"`
	Slug  string        `json:"slug"`
	Cover CoverResponse `json:"cover"`
}

// GameSummaryResponse is a locally stored game.
type GameSummaryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func BuildGameResponses(games []game.Game) []GameResponse {
	out := make([]GameResponse, len(games))
	for i, g := range games {
		out[i] = GameResponse{
			ID:   g.ID,
			Name: g.Name,
			Slug: g.Slug,
			Cover: CoverResponse{
				ID:       g.Cover.ID,
				ImageID:  g.Cover.ImageID,
				URL:      g.Cover.URL,
				Checksum: g.Cover.Checksum,
			},
		}
	}
	return out
}

func BuildGameSummaryResponses(games []*game.Game) []GameSummaryResponse {
	out := make([]GameSummaryResponse, len(games))
	for i, g := range games {
		out[i] = GameSummaryResponse{ID: g.ID, Name: g.Name, Slug: g.Slug}
	}
	return out
}
