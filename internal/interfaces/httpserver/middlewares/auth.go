package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/auth"
	"github.com/nollidnosnhoj/ggpx/internal/interfaces/httpserver/responses"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

const (
	principalContextKey = "principal"
	userIDHeader        = "X-User-ID"
	userNameHeader      = "X-User-Name"
)

// AuthMiddleware requires an authenticated principal. With JWT validation
// enabled it reads the bearer token; otherwise it trusts gateway identity headers.
func AuthMiddleware(validator *auth.Validator, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var principal auth.Principal
		if validator.Enabled() {
			p, err := validator.Authenticate(auth.BearerToken(c.GetHeader("Authorization")))
			if err != nil {
				logger.Warn().Err(err).Str("path", c.FullPath()).Msg("jwt validation failed")
				responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "unauthorized", "ef6b8d0e-2a7c-44b5-9d3f-8b0d2f4a6c79")
				return
			}
			principal = p
		} else {
			principal = auth.Principal{
				ID:   strings.TrimSpace(c.GetHeader(userIDHeader)),
				Name: strings.TrimSpace(c.GetHeader(userNameHeader)),
			}
		}

		if principal.ID == "" {
			logger.Warn().
				Str("path", c.FullPath()).
				Str("method", c.Request.Method).
				Msg("unauthenticated request")
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "f07c9e1f-3b8d-45c6-8e4a-9c1e3a5b7d80")
			return
		}

		c.Set(principalContextKey, principal)
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *gin.Context) (auth.Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return auth.Principal{}, false
	}
	principal, ok := val.(auth.Principal)
	return principal, ok
}
