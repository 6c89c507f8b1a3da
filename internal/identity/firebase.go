package identity

import (
	"context"
	"fmt"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/DaInfernalCoder/idea-to-epic-maker/config"
)

// InitializeFirebase initializes the Firebase Admin SDK and returns an
// Auth client.
func InitializeFirebase(cfg *config.FirebaseConfig) (*auth.Client, error) {
	if cfg.CredentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}

	opt := option.WithCredentialsFile(cfg.CredentialsPath)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}

	return authClient, nil
}

// FirebaseProvider adapts a Firebase Auth client plus the ID token the
// transport handed us into the Provider interface.
type FirebaseProvider struct {
	client  *auth.Client
	idToken string

	mu   sync.Mutex
	subs map[int]func(*Session)
	next int
	uid  string
}

func NewFirebaseProvider(client *auth.Client, idToken string) *FirebaseProvider {
	return &FirebaseProvider{
		client:  client,
		idToken: idToken,
		subs:    make(map[int]func(*Session)),
	}
}

// GetSession verifies the ID token. A missing token means logged out,
// not an error.
func (p *FirebaseProvider) GetSession(ctx context.Context) (*Session, error) {
	if p.idToken == "" {
		return nil, nil
	}

	decoded, err := p.client.VerifyIDToken(ctx, p.idToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	sess := &Session{UserID: decoded.UID}
	if email, ok := decoded.Claims["email"].(string); ok {
		sess.Email = email
	}

	p.mu.Lock()
	p.uid = decoded.UID
	p.mu.Unlock()

	return sess, nil
}

func (p *FirebaseProvider) OnSessionChange(fn func(*Session)) func() {
	p.mu.Lock()
	id := p.next
	p.next++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// SignOut revokes the user's refresh tokens so other devices drop the
// session on their next refresh.
func (p *FirebaseProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	uid := p.uid
	p.mu.Unlock()

	if uid == "" {
		return nil
	}
	if err := p.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
