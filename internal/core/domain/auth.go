package domain

// Scopes granted to API tokens
const (
	ScopeExtract = "extract"
	ScopeAdmin   = "admin"
)

// TokenClaims are the claims carried by an API bearer token.
type TokenClaims struct {
	Subject   string   `json:"sub"`
	Scopes    []string `json:"scopes"`
	IssuedAt  int64    `json:"iat"`
	ExpiresAt int64    `json:"exp"`
}

// HasScope reports whether the token grants scope. Admin implies every scope.
func (c *TokenClaims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	for _, s := range c.Scopes {
		if s == scope || s == ScopeAdmin {
			return true
		}
	}
	return false
}
