package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/nollidnosnhoj/ggpx/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
	auth     gin.HandlerFunc
}

// NewRoutes builds the v1 route registrar. requireAuth guards routes that act
// on behalf of a user.
func NewRoutes(provider *handlers.Provider, requireAuth gin.HandlerFunc) *Routes {
	return &Routes{handlers: provider, auth: requireAuth}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	posts := group.Group("/posts")
	posts.POST("/uploads", r.auth, r.handlers.Post.RequestUpload)
	posts.POST("", r.auth, r.handlers.Post.CreatePosts)
	posts.GET("/:id", r.handlers.Post.GetPost)

	games := group.Group("/games")
	games.GET("/search", r.handlers.Game.SearchGames)
	games.GET("", r.handlers.Game.ListGames)
}
