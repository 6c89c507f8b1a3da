// Package onboarding tracks the first-visit and tour-completed flags in
// the session-scoped local store.
package onboarding

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/identity"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/localstore"
)

type Handler struct{}

func Register(rg *gin.RouterGroup) {
	h := &Handler{}

	rg.GET("", h.status)
	rg.POST("/complete", h.complete)
}

// status reports the onboarding flags. The first call of a session
// marks it as visited, which is what tells the client to open the tour
// exactly once.
func (h *Handler) status(c *gin.Context) {
	store, ok := identity.StoreFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "no session store"})
		return
	}

	ctx := c.Request.Context()

	completed := flag(c, store, localstore.KeyOnboardingDone)
	visited := flag(c, store, localstore.KeyHasVisited)
	if !visited {
		if err := store.Set(ctx, localstore.KeyHasVisited, "true"); err != nil {
			log.Printf("[warn] operation=onboarding_status error=%v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"completed":   completed,
		"first_visit": !visited,
	})
}

func (h *Handler) complete(c *gin.Context) {
	store, ok := identity.StoreFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "no session store"})
		return
	}

	if err := store.Set(c.Request.Context(), localstore.KeyOnboardingDone, "true"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func flag(c *gin.Context, store localstore.Store, key string) bool {
	val, err := store.Get(c.Request.Context(), key)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		log.Printf("[warn] operation=onboarding_flag key=%s error=%v", key, err)
	}
	return val == "true"
}
