package auth

import "github.com/divination-engine/arcana/internal/identity"

// TokenPrincipal adapts validated access-token claims to the
// identity.Principal interface. It replaces any runtime type inspection of
// token library types: downstream code only ever sees the interface.
type TokenPrincipal struct {
	claims *AccessClaims
}

func NewTokenPrincipal(claims *AccessClaims) *TokenPrincipal {
	return &TokenPrincipal{claims: claims}
}

// Subject prefers the uid claim and falls back to the registered subject.
func (p *TokenPrincipal) Subject() string {
	if p.claims.UserID != "" {
		return p.claims.UserID
	}
	return p.claims.RegisteredClaims.Subject
}

func (p *TokenPrincipal) Authorities() []string {
	return p.claims.Authorities
}

// Claims exposes the raw token claims for handlers that need the email.
func (p *TokenPrincipal) Claims() *AccessClaims {
	return p.claims
}

var _ identity.Principal = (*TokenPrincipal)(nil)
