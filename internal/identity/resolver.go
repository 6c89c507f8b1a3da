package identity

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/localstore"
)

// Resolver establishes the principal for one session. Guest markers in
// the local store win over the external provider; when neither yields
// anything the session is logged out.
type Resolver struct {
	store    localstore.Store
	provider Provider
	now      func() time.Time

	mu        sync.Mutex
	principal *Principal
	unsub     func()
}

func NewResolver(store localstore.Store, provider Provider) *Resolver {
	return &Resolver{
		store:    store,
		provider: provider,
		now:      time.Now,
	}
}

// Resolve determines the current principal. Provider failures are
// treated as logged-out; Resolve never returns an error.
func (r *Resolver) Resolve(ctx context.Context) *Principal {
	mode, err := r.store.Get(ctx, localstore.KeyGuestMode)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		log.Printf("[warn] operation=resolve message=guest flag read failed error=%v", err)
	}

	if mode == "true" {
		if p := r.resolveGuest(ctx); p != nil {
			r.setPrincipal(p)
			return p
		}
		// Expired guest session falls through to logged-out; the
		// provider is not consulted because the markers just said
		// this session chose guest mode.
		r.setPrincipal(nil)
		return nil
	}

	// Subscribe first so a session change arriving during the initial
	// fetch is not lost. Both paths write the same non-guest shape;
	// last writer wins.
	if r.provider != nil {
		r.unsub = r.provider.OnSessionChange(func(s *Session) {
			r.setFromSession(s)
		})

		sess, err := r.provider.GetSession(ctx)
		if err != nil {
			log.Printf("[warn] operation=resolve message=session fetch failed error=%v", err)
			sess = nil
		}
		r.setFromSession(sess)
	} else {
		r.setPrincipal(nil)
	}

	return r.Current()
}

func (r *Resolver) resolveGuest(ctx context.Context) *Principal {
	raw, err := r.store.Get(ctx, localstore.KeyGuestExpiry)
	if errors.Is(err, localstore.ErrNotFound) {
		// Guest flag without an expiry marker: record a fresh one.
		expiry := r.now().Add(GuestSessionTTL)
		if serr := r.store.Set(ctx, localstore.KeyGuestExpiry, formatExpiry(expiry)); serr != nil {
			log.Printf("[warn] operation=resolve message=guest expiry write failed error=%v", serr)
		}
		return guestPrincipal(expiry)
	}
	if err != nil {
		log.Printf("[warn] operation=resolve message=guest expiry read failed error=%v", err)
		return nil
	}

	expiry, perr := parseExpiry(raw)
	if perr != nil || r.now().After(expiry) {
		if derr := r.store.Delete(ctx, localstore.KeyGuestMode, localstore.KeyGuestExpiry); derr != nil {
			log.Printf("[warn] operation=resolve message=guest marker clear failed error=%v", derr)
		}
		return nil
	}
	return guestPrincipal(expiry)
}

// EnterGuestMode starts a guest session with a fresh 24-hour expiry.
// No network round-trip is involved; only the local store is touched.
func (r *Resolver) EnterGuestMode(ctx context.Context) (*Principal, error) {
	expiry := r.now().Add(GuestSessionTTL)
	if err := r.store.Set(ctx, localstore.KeyGuestMode, "true"); err != nil {
		return nil, err
	}
	if err := r.store.Set(ctx, localstore.KeyGuestExpiry, formatExpiry(expiry)); err != nil {
		return nil, err
	}

	p := guestPrincipal(expiry)
	r.setPrincipal(p)
	return p, nil
}

// Exit ends the session. Guest markers are cleared for guests; the
// provider's sign-out runs for authenticated principals. The principal
// is nil afterward in either branch.
func (r *Resolver) Exit(ctx context.Context) error {
	p := r.Current()
	r.setPrincipal(nil)
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}

	if err := r.store.Delete(ctx, localstore.KeyGuestMode, localstore.KeyGuestExpiry); err != nil {
		log.Printf("[warn] operation=exit message=guest marker clear failed error=%v", err)
	}

	if p.Durable() && r.provider != nil {
		return r.provider.SignOut(ctx)
	}
	return nil
}

// Current returns the most recently resolved principal, checking guest
// expiry lazily.
func (r *Resolver) Current() *Principal {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.principal
	if p != nil && p.IsGuest && r.now().After(p.ExpiresAt) {
		r.principal = nil
		return nil
	}
	return p
}

func (r *Resolver) setFromSession(s *Session) {
	if s == nil {
		r.setPrincipal(nil)
		return
	}
	r.setPrincipal(&Principal{ID: s.UserID, Email: s.Email})
}

func (r *Resolver) setPrincipal(p *Principal) {
	r.mu.Lock()
	r.principal = p
	r.mu.Unlock()
}

func guestPrincipal(expiry time.Time) *Principal {
	return &Principal{
		ID:        GuestUserID,
		Email:     "guest@localhost",
		IsGuest:   true,
		ExpiresAt: expiry,
	}
}

// Expiry markers are stored as unix milliseconds, the format the web
// client wrote.
func formatExpiry(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseExpiry(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
