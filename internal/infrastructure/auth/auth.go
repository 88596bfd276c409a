package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/nollidnosnhoj/ggpx/internal/config"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Name string
}

// Validator validates JWTs using JWKS. A disabled validator trusts identity
// headers set by the gateway.
type Validator struct {
	enabled bool
	issuer  string
	methods []string
	keyfunc jwt.Keyfunc
	log     zerolog.Logger
}

// NewValidator initializes JWKS fetching when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	logger := log.With().Str("component", "auth").Logger()
	if !cfg.AuthEnabled {
		logger.Warn().Msg("AUTH_ENABLED is false; trusting X-User-ID headers")
		return &Validator{log: logger}, nil
	}

	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Error().Err(err).Msg("jwks refresh error")
		},
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, options)
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}

	return NewStaticValidator(jwks.Keyfunc, cfg.AuthIssuer, []string{"RS256", "RS384", "RS512"}, logger), nil
}

// NewStaticValidator builds an enabled validator around a fixed key function.
func NewStaticValidator(keyFunc jwt.Keyfunc, issuer string, methods []string, log zerolog.Logger) *Validator {
	return &Validator{
		enabled: true,
		issuer:  issuer,
		methods: methods,
		keyfunc: keyFunc,
		log:     log,
	}
}

// Enabled reports whether bearer tokens are required.
func (v *Validator) Enabled() bool {
	return v != nil && v.enabled
}

// Authenticate parses a raw bearer token into a principal.
func (v *Validator) Authenticate(tokenString string) (Principal, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Principal{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(v.methods), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc, opts...)
	if err != nil || !token.Valid {
		return Principal{}, errors.Join(ErrInvalidToken, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return Principal{}, fmt.Errorf("%w: subject is required", ErrInvalidToken)
	}

	return Principal{ID: subject, Name: displayName(claims)}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func displayName(claims jwt.MapClaims) string {
	for _, key := range []string{"name", "preferred_username", "nickname"} {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
