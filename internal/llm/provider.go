// Package llm defines the provider boundary: one capability interface with a
// variant implementation per provider type, selected by configuration at
// construction time.
package llm

import "context"

// Provider sends a prompt to a model and returns its raw text completion.
// Implementations do not retry beyond their own client policy; per-call
// timeouts arrive through ctx.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Request carries one question plus sampling options.
type Request struct {
	System      string
	Question    string
	Temperature float64
	MaxTokens   int
}

// Response is the raw completion. Model reports what the backend actually
// served, which may differ from the configured alias.
type Response struct {
	Text      string
	Model     string
	LatencyMs int64
}
