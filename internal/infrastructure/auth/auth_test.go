package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nollidnosnhoj/ggpx/internal/config"
)

var testKey = []byte("test-signing-key")

func newTestValidator() *Validator {
	return NewStaticValidator(func(*jwt.Token) (interface{}, error) {
		return testKey, nil
	}, "https://issuer.test", []string{"HS256"}, zerolog.Nop())
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)
	return token
}

func TestAuthenticateValidToken(t *testing.T) {
	v := newTestValidator()
	token := sign(t, jwt.MapClaims{
		"sub":                "user-1",
		"iss":                "https://issuer.test",
		"exp":                time.Now().Add(time.Hour).Unix(),
		"preferred_username": "speedrunner",
	})

	principal, err := v.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: "user-1", Name: "speedrunner"}, principal)
}

func TestAuthenticateRejects(t *testing.T) {
	v := newTestValidator()
	cases := map[string]string{
		"empty": "",
		"wrong issuer": sign(t, jwt.MapClaims{
			"sub": "user-1", "iss": "https://other.test", "exp": time.Now().Add(time.Hour).Unix(),
		}),
		"expired": sign(t, jwt.MapClaims{
			"sub": "user-1", "iss": "https://issuer.test", "exp": time.Now().Add(-time.Hour).Unix(),
		}),
		"no expiry": sign(t, jwt.MapClaims{
			"sub": "user-1", "iss": "https://issuer.test",
		}),
		"no subject": sign(t, jwt.MapClaims{
			"iss": "https://issuer.test", "exp": time.Now().Add(time.Hour).Unix(),
		}),
		"garbage": "not.a.jwt",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Authenticate(token)
			require.Error(t, err)
			if token == "" {
				assert.ErrorIs(t, err, ErrMissingToken)
			} else {
				assert.ErrorIs(t, err, ErrInvalidToken)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken("abc"))
	assert.Empty(t, BearerToken(""))
}

func TestDisabledValidator(t *testing.T) {
	v, err := NewValidator(context.Background(), &config.Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, v.Enabled())
}
