package feedback

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/identity"
)

type Handler struct {
	repo *Repo
}

func Register(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.POST("", h.submit)
}

type submitReq struct {
	Message   string `json:"message"`
	UserEmail string `json:"user_email"`
}

func (h *Handler) submit(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "feedback store unavailable"})
		return
	}

	f := Feedback{
		Message:   strings.TrimSpace(req.Message),
		UserEmail: strings.TrimSpace(req.UserEmail),
		UserAgent: c.Request.UserAgent(),
	}
	// Guests submit anonymously; only durable ids are recorded.
	if p, ok := identity.FromContext(c); ok && p.Durable() {
		f.UserID = &p.ID
		if f.UserEmail == "" {
			f.UserEmail = p.Email
		}
	}

	id, err := h.repo.Insert(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": id})
}
