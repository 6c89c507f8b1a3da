package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/project"
)

func TestPrompts_CarryTheirInputs(t *testing.T) {
	brainstorm := project.BrainstormData{
		Features:     []string{"contact import", "pipeline view"},
		Technologies: []string{"go", "postgres"},
		Timestamp:    "2025-06-01T12:00:00Z",
	}

	t.Run("research", func(t *testing.T) {
		p := researchPrompt("Build a CRM for freelancers", brainstorm)
		assert.Contains(t, p, "Build a CRM for freelancers")
		assert.Contains(t, p, "contact import")
		assert.Contains(t, p, "postgres")
	})

	t.Run("prd", func(t *testing.T) {
		p := prdPrompt("research findings here", brainstorm)
		assert.Contains(t, p, "research findings here")
		assert.Contains(t, p, "pipeline view")
	})

	t.Run("epics", func(t *testing.T) {
		p := epicsPrompt("the prd body")
		assert.Contains(t, p, "the prd body")
	})
}

func TestIndentJSON(t *testing.T) {
	out := indentJSON(map[string]any{"a": 1})
	assert.JSONEq(t, `{"a":1}`, out)
	assert.Contains(t, out, "\n", "selections are rendered indented for the model")
}
