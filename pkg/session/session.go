// Package session holds the identity the rest of the code is allowed to read
// from an authenticated caller: a stable user id and a display name.
package session

import "context"

// Session is passed explicitly to the components that need the caller's identity.
type Session struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
}

// Authenticated reports whether the session carries a user id.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext extracts the session stored by NewContext.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok && s.Authenticated()
}
