// Package identity defines the authenticated principal abstraction shared by
// the auth layer and the quota enforcement gate.
package identity

import "context"

// Principal is an authenticated caller. Subject returns a stable user
// identifier; Authorities returns the caller's authority strings
// (e.g. "ROLE_PREMIUM") in the order they were attached.
type Principal interface {
	Subject() string
	Authorities() []string
}

// BasicPrincipal is a plain subject + authorities pair, used where no token
// claims are involved (tests, internal callers).
type BasicPrincipal struct {
	subject     string
	authorities []string
}

func NewBasicPrincipal(subject string, authorities []string) *BasicPrincipal {
	return &BasicPrincipal{subject: subject, authorities: authorities}
}

func (p *BasicPrincipal) Subject() string { return p.subject }

func (p *BasicPrincipal) Authorities() []string { return p.authorities }

type contextKey struct{}

var principalKey contextKey

// WithPrincipal returns a context carrying the given principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the principal stored in ctx, or nil if the request is
// unauthenticated.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey).(Principal)
	return p
}
