package handlers

import (
	"github.com/rs/zerolog"
)

// Provider wires HTTP handlers.
type Provider struct {
	Post *PostHandler
	Game *GameHandler
}

func NewProvider(postService PostService, gameService GameService, log zerolog.Logger) *Provider {
	return &Provider{
		Post: NewPostHandler(postService, log),
		Game: NewGameHandler(gameService, log),
	}
}
