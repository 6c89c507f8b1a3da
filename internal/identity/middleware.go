package identity

import (
	"log"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/api/http/middleware"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/localstore"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/users"
)

const (
	CtxPrincipal  = "principal"
	CtxLocalStore = "local_store"
)

// WithPrincipal resolves the principal for each request. A Bearer token
// wins and yields an authenticated principal (with its user row
// ensured); otherwise guest markers in the session-scoped local store
// decide. Requests with neither proceed without a principal — handlers
// that need one reject them.
func WithPrincipal(authClient *auth.Client, rdb *redis.Client, userRepo *users.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := localstore.NewRedis(rdb, middleware.GetSessionID(c))
		c.Set(CtxLocalStore, store)

		ctx := c.Request.Context()

		if token := extractToken(c); token != "" && authClient != nil {
			provider := NewFirebaseProvider(authClient, token)
			sess, err := provider.GetSession(ctx)
			if err != nil || sess == nil {
				// Invalid token is treated as logged out rather than
				// rejected; guest markers may still apply below.
				log.Printf("[warn] operation=with_principal message=token rejected error=%v", err)
			} else {
				if userRepo != nil {
					if _, uerr := userRepo.EnsureUser(ctx, users.UpsertUser{
						AuthUID: sess.UserID,
						Email:   sess.Email,
					}); uerr != nil {
						log.Printf("[warn] operation=with_principal message=ensure user failed error=%v", uerr)
					}
				}
				c.Set(CtxPrincipal, &Principal{ID: sess.UserID, Email: sess.Email})
				c.Next()
				return
			}
		}

		resolver := NewResolver(store, nil)
		if p := resolver.Resolve(ctx); p != nil {
			c.Set(CtxPrincipal, p)
		}

		c.Next()
	}
}

// FromContext returns the principal resolved for this request.
func FromContext(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

// StoreFromContext returns the session-scoped local store.
func StoreFromContext(c *gin.Context) (localstore.Store, bool) {
	v, ok := c.Get(CtxLocalStore)
	if !ok {
		return nil, false
	}
	s, ok := v.(localstore.Store)
	return s, ok
}

// extractToken extracts the Bearer token from the Authorization header.
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
