package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nollidnosnhoj/ggpx/internal/domain/game"
	"github.com/nollidnosnhoj/ggpx/internal/interfaces/httpserver/responses"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

// GameService is the game lookup used by the HTTP layer.
type GameService interface {
	SearchGames(ctx context.Context, query string) ([]game.Game, error)
	ListGames(ctx context.Context, take int) ([]*game.Game, error)
}

type GameHandler struct {
	service GameService
	log     zerolog.Logger
}

func NewGameHandler(service GameService, log zerolog.Logger) *GameHandler {
	return &GameHandler{
		service: service,
		log:     log.With().Str("component", "game-handler").Logger(),
	}
}

// SearchGames searches the catalog by name.
func (h *GameHandler) SearchGames(c *gin.Context) {
	games, err := h.service.SearchGames(c.Request.Context(), c.Query("query"))
	if err != nil {
		responses.HandleError(c, err, "failed to search games")
		return
	}
	c.JSON(http.StatusOK, responses.BuildGameResponses(games))
}

// ListGames lists games already referenced by posts.
func (h *GameHandler) ListGames(c *gin.Context) {
	take := game.DefaultListTake
	if raw := c.Query("take"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "take must be an integer", "de5a7c9d-1f6b-43a4-c25e-7a9c1e3f5b68")
			return
		}
		take = parsed
	}

	games, err := h.service.ListGames(c.Request.Context(), take)
	if err != nil {
		responses.HandleError(c, err, "failed to list games")
		return
	}
	c.JSON(http.StatusOK, responses.BuildGameSummaryResponses(games))
}
