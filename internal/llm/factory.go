package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/vfbench/internal/config"
)

// NewProvider builds the adapter a provider config asks for. An unknown type
// is a configuration error and fatal before any dispatch.
func NewProvider(pcfg config.Provider) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(pcfg.Type)) {
	case "openai":
		return NewOpenAIProvider(pcfg.Name, pcfg.APIKey, pcfg.BaseURL, pcfg.Model), nil
	case "maritaca":
		return NewMaritacaProvider(pcfg.Name, pcfg.APIKey, pcfg.BaseURL, pcfg.Model), nil
	case "ollama":
		return NewOllamaProvider(pcfg.Name, pcfg.BaseURL, pcfg.Model), nil
	case "anthropic", "claude":
		return NewAnthropicProvider(pcfg.Name, pcfg.APIKey, pcfg.BaseURL, pcfg.Model), nil
	case "":
		return nil, fmt.Errorf("llm: provider %q: missing type", strings.TrimSpace(pcfg.Name))
	default:
		return nil, fmt.Errorf("llm: provider %q: unknown type %q (expected openai|maritaca|ollama|anthropic)", strings.TrimSpace(pcfg.Name), pcfg.Type)
	}
}

// NewRegistryFromConfig builds a registry with one provider per config entry.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}

	r := NewRegistry()
	for _, pcfg := range cfg.Providers {
		p, err := NewProvider(pcfg)
		if err != nil {
			return nil, err
		}
		r.Register(p)
	}
	return r, nil
}
