package identity

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	authClient *auth.Client
}

func Register(rg *gin.RouterGroup, authClient *auth.Client) {
	h := &Handler{authClient: authClient}

	rg.POST("/guest", h.enterGuest)
	rg.POST("/signout", h.signOut)
	rg.GET("/me", h.me)
}

func (h *Handler) enterGuest(c *gin.Context) {
	store, ok := StoreFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "no session store"})
		return
	}

	resolver := NewResolver(store, nil)
	p, err := resolver.EnterGuestMode(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "principal": p})
}

func (h *Handler) signOut(c *gin.Context) {
	store, ok := StoreFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "no session store"})
		return
	}

	var provider Provider
	if p, _ := FromContext(c); p.Durable() && h.authClient != nil {
		fp := NewFirebaseProvider(h.authClient, extractToken(c))
		// Re-verify so the provider knows which uid to revoke.
		_, _ = fp.GetSession(c.Request.Context())
		provider = fp
	}

	resolver := NewResolver(store, provider)
	if p, ok := FromContext(c); ok {
		resolver.setPrincipal(p)
	}
	if err := resolver.Exit(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) me(c *gin.Context) {
	p, ok := FromContext(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ok": true, "principal": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "principal": p})
}
