// Package generate produces the research, PRD, and epics documents for
// a project via the Anthropic API.
package generate

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/DaInfernalCoder/idea-to-epic-maker/config"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/project"
)

// Client wraps the Anthropic API with a shared rate limit.
type Client struct {
	ac        anthropic.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
}

func NewClient(cfg config.AnthropicConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}

	return &Client{
		ac:        anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		limiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
	}, nil
}

// Model returns the configured model name, for prompt logging.
func (c *Client) Model() string { return c.model }

// Generation carries the prompt actually sent and the completion, so
// the caller can log both.
type Generation struct {
	Prompt     string
	Completion string
}

// GenerateResearch produces the technical research document from the
// requirements and brainstorm selections.
func (c *Client) GenerateResearch(ctx context.Context, requirements string, brainstorm project.BrainstormData) (Generation, error) {
	return c.complete(ctx, researchSystem, researchPrompt(requirements, brainstorm))
}

// GeneratePRD produces the product requirements document from the
// research output and brainstorm selections.
func (c *Client) GeneratePRD(ctx context.Context, research string, brainstorm project.BrainstormData) (Generation, error) {
	return c.complete(ctx, "", prdPrompt(research, brainstorm))
}

// GenerateEpics breaks the PRD down into development epics.
func (c *Client) GenerateEpics(ctx context.Context, prd string) (Generation, error) {
	return c.complete(ctx, "", epicsPrompt(prd))
}

func (c *Client) complete(ctx context.Context, system, prompt string) (Generation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Generation{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.ac.Messages.New(ctx, params)
	if err != nil {
		return Generation{}, fmt.Errorf("anthropic API error: %w", err)
	}

	var out string
	for _, block := range resp.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return Generation{Prompt: prompt, Completion: out}, nil
}
