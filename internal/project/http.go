package project

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/identity"
)

type Handler struct {
	projects *Repo
	docs     *DocsRepo
}

// Register mounts the single-current-project routes on rg and the
// read-only project list on listGroup.
func Register(rg *gin.RouterGroup, listGroup *gin.RouterGroup, projects *Repo, docs *DocsRepo) {
	h := &Handler{projects: projects, docs: docs}

	rg.GET("", h.load)
	rg.POST("/restart", h.restart)
	rg.PUT("/steps/:step", h.updateStep)

	listGroup.GET("", h.list)
}

// SyncFromRequest builds a synchronizer for the request's principal
// and session store. Writes the error response itself when the request
// has no usable session. Shared with the generation handlers.
func SyncFromRequest(c *gin.Context, projects *Repo, docs *DocsRepo) (*Synchronizer, bool) {
	p, ok := identity.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "no active session"})
		return nil, false
	}
	store, ok := identity.StoreFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "no session store"})
		return nil, false
	}

	var ps ProjectStore
	var ds DocumentStore
	if projects != nil {
		ps = projects
	}
	if docs != nil {
		ds = docs
	}
	return NewSynchronizer(p, NewCache(store), ps, ds), true
}

func (h *Handler) Sync(c *gin.Context) (*Synchronizer, bool) {
	return SyncFromRequest(c, h.projects, h.docs)
}

func (h *Handler) load(c *gin.Context) {
	sync, ok := h.Sync(c)
	if !ok {
		return
	}

	res, err := sync.LoadOrCreate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"project_id":    sync.ProjectID(),
		"data":          sync.Data(),
		"remote_synced": res.RemoteSynced,
	})
}

func (h *Handler) restart(c *gin.Context) {
	sync, ok := h.Sync(c)
	if !ok {
		return
	}

	res, err := sync.CreateNewProject(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"ok":            true,
		"project_id":    sync.ProjectID(),
		"data":          sync.Data(),
		"remote_synced": res.RemoteSynced,
	})
}

type updateStepReq struct {
	Text       *string         `json:"text"`
	Brainstorm *BrainstormData `json:"brainstorm"`
}

func (h *Handler) updateStep(c *gin.Context) {
	step := Step(c.Param("step"))
	if !step.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown step"})
		return
	}

	var req updateStepReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	var content StepContent
	switch {
	case step == StepBrainstorm && req.Brainstorm != nil:
		content = Selection(*req.Brainstorm)
	case step != StepBrainstorm && req.Text != nil:
		content = Text(*req.Text)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "content does not match step"})
		return
	}

	sync, ok := h.Sync(c)
	if !ok {
		return
	}

	res, err := sync.UpdateStep(c.Request.Context(), step, content)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidStep) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"project_id":    sync.ProjectID(),
		"remote_synced": res.RemoteSynced,
	})
}

func (h *Handler) list(c *gin.Context) {
	p, ok := identity.FromContext(c)
	if !ok || !p.Durable() {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "sign in to list projects"})
		return
	}
	if h.projects == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "remote store unavailable"})
		return
	}

	items, err := h.projects.ListByOwner(c.Request.Context(), p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}
