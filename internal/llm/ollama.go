package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultOllamaBaseURL = "http://localhost:11434"

// OllamaProvider calls a local ollama daemon over its generate endpoint.
// The daemon has no system-message channel on /api/generate, so the system
// prompt is prefixed to the question.
type OllamaProvider struct {
	httpClient *http.Client
	name       string
	baseURL    string
	model      string
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

func NewOllamaProvider(name, baseURL, model string) *OllamaProvider {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = DefaultOllamaBaseURL
	}

	n := strings.TrimSpace(name)
	if n == "" {
		n = "ollama"
	}
	m := strings.TrimSpace(model)
	if m == "" {
		m = "llama3"
	}

	return &OllamaProvider{
		httpClient: &http.Client{},
		name:       n,
		baseURL:    strings.TrimRight(base, "/"),
		model:      m,
	}
}

func (p *OllamaProvider) Name() string {
	if p == nil {
		return "ollama"
	}
	return p.name
}

func (p *OllamaProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if p == nil || p.httpClient == nil {
		return nil, errors.New("llm: ollama: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: ollama: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: ollama: nil request")
	}

	prompt := req.Question
	if system := strings.TrimSpace(req.System); system != "" {
		prompt = system + "\n\n" + req.Question
	}

	options := map[string]any{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   p.model,
		Prompt:  prompt,
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := p.httpClient.Do(httpReq)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("llm: ollama: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: ollama: read response: %w", err)
	}

	if httpResp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("llm: ollama: model %q not found (run: ollama pull %s)", p.model, p.model)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm: ollama: status %s: %s", httpResp.Status, strings.TrimSpace(string(raw)))
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("llm: ollama: parse response: %w", err)
	}

	model := strings.TrimSpace(out.Model)
	if model == "" {
		model = p.model
	}
	return &Response{
		Text:      out.Response,
		Model:     model,
		LatencyMs: latency,
	}, nil
}
