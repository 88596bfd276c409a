package game

import "errors"

var (
	// ErrCatalogQuery means the catalog answered with a body that does not match the expected shape.
	ErrCatalogQuery = errors.New("catalog response did not match expected shape")
	// ErrCatalogAuth means the catalog credentials were rejected or the token exchange failed.
	ErrCatalogAuth = errors.New("catalog authentication failed")
	// ErrCatalogRequest covers any other non-success catalog response.
	ErrCatalogRequest = errors.New("catalog request failed")
	// ErrCatalogRateLimited means the catalog kept answering 429 after all retries.
	ErrCatalogRateLimited = errors.New("catalog rate limit exceeded")
	ErrInvalidQuery       = errors.New("invalid search query")
)
