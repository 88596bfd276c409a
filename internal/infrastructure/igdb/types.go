package igdb

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nollidnosnhoj/ggpx/internal/domain/game"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// accessToken is the client-credentials grant issued by the Twitch identity service.
type accessToken struct {
	AccessToken string `json:"access_token" validate:"required"`
	ExpiresIn   int64  `json:"expires_in" validate:"gt=0"`
	TokenType   string `json:"token_type" validate:"required"`
}

type coverDTO struct {
	ID       int64  `json:"id" validate:"required"`
	ImageID  string `json:"image_id" validate:"required"`
	URL      string `json:"url" validate:"required"`
	Checksum string `json:"checksum" validate:"required"`
}

type gameDTO struct {
	ID    int64     `json:"id" validate:"required"`
	Name  string    `json:"name" validate:"required"`
	Slug  string    `json:"slug" validate:"required"`
	Cover *coverDTO `json:"cover" validate:"required"`
}

func (g gameDTO) toDomain() game.Game {
	return game.Game{
		ID:   g.ID,
		Name: g.Name,
		Slug: g.Slug,
		Cover: game.Cover{
			ID:       g.Cover.ID,
			ImageID:  g.Cover.ImageID,
			URL:      g.Cover.URL,
			Checksum: g.Cover.Checksum,
		},
	}
}

func decodeGames(body []byte) ([]game.Game, error) {
	var dtos []gameDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("decode games: %w", err)
	}
	games := make([]game.Game, len(dtos))
	for i := range dtos {
		if err := validate.Struct(dtos[i]); err != nil {
			return nil, fmt.Errorf("games[%d]: %w", i, err)
		}
		games[i] = dtos[i].toDomain()
	}
	return games, nil
}

func decodeToken(body []byte) (*accessToken, error) {
	var token accessToken
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if err := validate.Struct(token); err != nil {
		return nil, err
	}
	return &token, nil
}
