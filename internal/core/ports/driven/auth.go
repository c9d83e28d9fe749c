package driven

import "github.com/custodia-labs/sercha-extract/internal/core/domain"

// TokenVerifier issues and validates API bearer tokens.
type TokenVerifier interface {
	// GenerateToken signs claims.
	GenerateToken(claims *domain.TokenClaims) (string, error)

	// ParseToken validates a token. Expired tokens return
	// domain.ErrTokenExpired, anything else unusable domain.ErrTokenInvalid.
	ParseToken(token string) (*domain.TokenClaims, error)
}
