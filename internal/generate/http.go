package generate

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/project"
)

type Handler struct {
	client    *Client
	promptLog *PromptLogRepo
	projects  *project.Repo
	docs      *project.DocsRepo
}

func Register(rg *gin.RouterGroup, client *Client, promptLog *PromptLogRepo, projects *project.Repo, docs *project.DocsRepo) {
	h := &Handler{client: client, promptLog: promptLog, projects: projects, docs: docs}

	rg.POST("/research", h.research)
	rg.POST("/prd", h.prd)
	rg.POST("/epics", h.epics)
}

func (h *Handler) research(c *gin.Context) {
	h.generate(c, project.StepResearch, func(ctx context.Context, d project.DocumentSet) (Generation, error) {
		return h.client.GenerateResearch(ctx, d.Requirements, d.Brainstorm)
	}, project.StepRequirements, project.StepBrainstorm)
}

func (h *Handler) prd(c *gin.Context) {
	h.generate(c, project.StepPRD, func(ctx context.Context, d project.DocumentSet) (Generation, error) {
		return h.client.GeneratePRD(ctx, d.Research, d.Brainstorm)
	}, project.StepResearch)
}

func (h *Handler) epics(c *gin.Context) {
	h.generate(c, project.StepEpics, func(ctx context.Context, d project.DocumentSet) (Generation, error) {
		return h.client.GenerateEpics(ctx, d.PRD)
	}, project.StepPRD)
}

// generate loads the current project, checks the upstream slots are
// filled, runs the generator, and saves the result through the
// synchronizer so the dual-write guarantees hold for generated content
// too.
func (h *Handler) generate(c *gin.Context, target project.Step, run func(context.Context, project.DocumentSet) (Generation, error), upstream ...project.Step) {
	if h.client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "generation is not configured"})
		return
	}

	sync, ok := project.SyncFromRequest(c, h.projects, h.docs)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := sync.LoadOrCreate(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	data := sync.Data()
	var missing []string
	for _, step := range upstream {
		if !data.Complete(step) {
			missing = append(missing, string(step))
		}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"ok":    false,
			"error": "missing upstream steps: " + strings.Join(missing, ", "),
		})
		return
	}

	gen, err := run(ctx, data)
	if err != nil {
		log.Printf("[error] operation=generate step=%s error=%v", target, err)
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "generation failed"})
		return
	}

	res, err := sync.UpdateStep(ctx, target, project.Text(gen.Completion))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	h.logPrompt(ctx, sync.ProjectID(), target, gen)

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"project_id":    sync.ProjectID(),
		string(target):  gen.Completion,
		"remote_synced": res.RemoteSynced,
	})
}

func (h *Handler) logPrompt(ctx context.Context, projectID string, step project.Step, gen Generation) {
	if h.promptLog == nil {
		return
	}
	_, err := h.promptLog.Insert(ctx, PromptLogEntry{
		ProjectID:  projectID,
		Step:       string(step),
		Prompt:     gen.Prompt,
		Completion: gen.Completion,
		Model:      h.client.Model(),
	})
	if err != nil {
		log.Printf("[warn] operation=log_prompt step=%s error=%v", step, err)
	}
}
