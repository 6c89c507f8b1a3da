// Package identity resolves who is driving a session: an authenticated
// user backed by the external auth provider, or a time-boxed guest that
// exists only in the session-scoped local store.
package identity

import (
	"context"
	"time"
)

// GuestUserID is the sentinel principal id for guest sessions. It is
// not a durable identity and must never reach the remote store.
const GuestUserID = "guest-user"

// GuestSessionTTL is how long a guest session stays valid after entry.
const GuestSessionTTL = 24 * time.Hour

// Principal is the resolved identity for a session.
type Principal struct {
	ID      string `json:"id"`
	Email   string `json:"email,omitempty"`
	IsGuest bool   `json:"is_guest"`
	// ExpiresAt is set for guest principals only.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Durable reports whether the principal has a stable server-side
// identity. Only durable principals ever touch the remote store.
func (p *Principal) Durable() bool {
	return p != nil && !p.IsGuest
}

// Session is what the external auth provider knows about the current
// user.
type Session struct {
	UserID string
	Email  string
}

// Provider is the external authentication provider.
type Provider interface {
	// GetSession returns the current session, or nil when logged out.
	GetSession(ctx context.Context) (*Session, error)
	// OnSessionChange registers a callback invoked whenever the
	// session changes. The returned function unsubscribes.
	OnSessionChange(fn func(*Session)) (unsubscribe func())
	// SignOut ends the provider-side session.
	SignOut(ctx context.Context) error
}
