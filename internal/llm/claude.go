package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/stellarlinkco/vfbench/internal/claude"
)

// Friendly names accepted in config, resolved to dated API model IDs.
var anthropicModelAliases = map[string]string{
	"claude-3-opus":     "claude-3-opus-20240229",
	"claude-3-sonnet":   "claude-3-sonnet-20240229",
	"claude-3-haiku":    "claude-3-haiku-20240307",
	"claude-3-5-sonnet": "claude-3-5-sonnet-20241022",
	"claude-3-5-haiku":  "claude-3-5-haiku-20241022",
}

// AnthropicProvider adapts the low-level claude client to the Provider
// capability.
type AnthropicProvider struct {
	client *claude.Client
	name   string
}

func NewAnthropicProvider(name, apiKey, baseURL, model string) *AnthropicProvider {
	opts := make([]claude.Option, 0, 2)
	if v := strings.TrimSpace(baseURL); v != "" {
		opts = append(opts, claude.WithBaseURL(v))
	}
	if v := strings.TrimSpace(model); v != "" {
		if resolved, ok := anthropicModelAliases[strings.ToLower(v)]; ok {
			v = resolved
		}
		opts = append(opts, claude.WithModel(v))
	}

	n := strings.TrimSpace(name)
	if n == "" {
		n = "anthropic"
	}

	return &AnthropicProvider{
		client: claude.NewClient(strings.TrimSpace(apiKey), opts...),
		name:   n,
	}
}

func (p *AnthropicProvider) Name() string {
	if p == nil {
		return "anthropic"
	}
	return p.name
}

func (p *AnthropicProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("llm: anthropic: nil client")
	}
	if req == nil {
		return nil, errors.New("llm: anthropic: nil request")
	}

	start := time.Now()
	resp, err := p.client.Complete(ctx, &claude.Request{
		System:      req.System,
		Messages:    []claude.Message{{Role: "user", Content: req.Question}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("llm: anthropic: nil response")
	}

	return &Response{
		Text:      resp.Text(),
		Model:     strings.TrimSpace(resp.Model),
		LatencyMs: latency,
	}, nil
}
