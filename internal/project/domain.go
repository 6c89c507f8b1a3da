// Package project owns the lifecycle of the current wizard project:
// one project record, five step documents, a local snapshot that is
// authoritative for guests, and best-effort sync to the remote store
// for authenticated users.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultName is the placeholder label for freshly minted projects.
const DefaultName = "Untitled Project"

var (
	ErrNotFound    = errors.New("project: not found")
	ErrInvalidStep = errors.New("project: invalid step")
)

// Step names the five wizard slots.
type Step string

const (
	StepRequirements Step = "requirements"
	StepBrainstorm   Step = "brainstorm"
	StepResearch     Step = "research"
	StepPRD          Step = "prd"
	StepEpics        Step = "epics"
)

// Steps lists all slots in wizard order.
var Steps = []Step{StepRequirements, StepBrainstorm, StepResearch, StepPRD, StepEpics}

func (s Step) Valid() bool {
	switch s {
	case StepRequirements, StepBrainstorm, StepResearch, StepPRD, StepEpics:
		return true
	}
	return false
}

// Project is the persisted aggregate record.
type Project struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BrainstormData is the structured brainstorm slot: the feature and
// technology selections plus the capture timestamp.
type BrainstormData struct {
	Features     []string `json:"features"`
	Technologies []string `json:"technologies"`
	Timestamp    string   `json:"timestamp"`
}

func (b BrainstormData) Empty() bool {
	return len(b.Features) == 0 && len(b.Technologies) == 0
}

// DocumentSet is the fixed record of the five step documents.
type DocumentSet struct {
	Requirements string         `json:"requirements"`
	Brainstorm   BrainstormData `json:"brainstorm"`
	Research     string         `json:"research"`
	PRD          string         `json:"prd"`
	Epics        string         `json:"epics"`
}

// StepContent is the tagged per-slot value: text for the four text
// slots, a structured selection for brainstorm. Exactly one side is
// meaningful per step.
type StepContent struct {
	Text       string
	Brainstorm *BrainstormData
}

// Text wraps a text slot value.
func Text(s string) StepContent {
	return StepContent{Text: s}
}

// Selection wraps a brainstorm slot value.
func Selection(b BrainstormData) StepContent {
	return StepContent{Brainstorm: &b}
}

// MarshalRemote renders the content as the JSON value sent to the
// remote document store: a JSON string for text slots, an object for
// brainstorm. Taken by value so later mutations can't leak into an
// in-flight request.
func (c StepContent) MarshalRemote(step Step) ([]byte, error) {
	if step == StepBrainstorm {
		if c.Brainstorm == nil {
			return nil, fmt.Errorf("%w: brainstorm content required for %q", ErrInvalidStep, step)
		}
		return json.Marshal(c.Brainstorm)
	}
	return json.Marshal(c.Text)
}

// Apply replaces the slot's whole value. There is no partial merge
// within a slot.
func (d *DocumentSet) Apply(step Step, content StepContent) error {
	switch step {
	case StepRequirements:
		d.Requirements = content.Text
	case StepBrainstorm:
		if content.Brainstorm == nil {
			return fmt.Errorf("%w: brainstorm content required", ErrInvalidStep)
		}
		d.Brainstorm = *content.Brainstorm
	case StepResearch:
		d.Research = content.Text
	case StepPRD:
		d.PRD = content.Text
	case StepEpics:
		d.Epics = content.Text
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStep, step)
	}
	return nil
}

// Complete reports whether a slot has meaningful content: trimmed
// non-empty text, or a non-empty selection for brainstorm.
func (d *DocumentSet) Complete(step Step) bool {
	switch step {
	case StepRequirements:
		return strings.TrimSpace(d.Requirements) != ""
	case StepBrainstorm:
		return !d.Brainstorm.Empty()
	case StepResearch:
		return strings.TrimSpace(d.Research) != ""
	case StepPRD:
		return strings.TrimSpace(d.PRD) != ""
	case StepEpics:
		return strings.TrimSpace(d.Epics) != ""
	}
	return false
}

// FromRemote rebuilds a document set out of the aggregate fetch result.
// Missing or undecodable slots stay at their zero values.
func FromRemote(docs map[string]json.RawMessage) DocumentSet {
	var d DocumentSet
	for step, raw := range docs {
		switch Step(step) {
		case StepBrainstorm:
			var b BrainstormData
			if err := json.Unmarshal(raw, &b); err == nil {
				d.Brainstorm = b
			}
		case StepRequirements, StepResearch, StepPRD, StepEpics:
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				_ = d.Apply(Step(step), Text(s))
			}
		}
	}
	return d
}
