// Package app wires configuration, dataset, prompt, providers, engine,
// metrics, reports, and the store into complete evaluation runs.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/stellarlinkco/vfbench/internal/config"
	"github.com/stellarlinkco/vfbench/internal/dataset"
	"github.com/stellarlinkco/vfbench/internal/prompt"
)

// ResolveDataset picks the benchmark source: explicit flag, then config,
// then the env override, then the embedded sample. The returned name labels
// reports and persisted runs.
func ResolveDataset(flagPath string, cfg *config.Config) (groups []dataset.QuestionGroup, name string, err error) {
	path := strings.TrimSpace(flagPath)
	if path == "" && cfg != nil {
		path = strings.TrimSpace(cfg.Dataset.Path)
	}
	if path == "" {
		path = strings.TrimSpace(os.Getenv(dataset.EnvPath))
	}

	if path == "" {
		return dataset.Sample(), "sample", nil
	}

	groups, err = dataset.Load(path)
	if err != nil {
		return nil, "", err
	}
	return groups, path, nil
}

// ResolvePrompt loads a prompt file when given one, else the embedded
// default.
func ResolvePrompt(flagPath string) (*prompt.Prompt, error) {
	path := strings.TrimSpace(flagPath)
	if path == "" {
		return prompt.Default(), nil
	}
	return prompt.LoadFromFile(path)
}

// SelectProviders resolves provider names against the config. An empty name
// list selects every configured provider. Unknown names list what is
// available; selected providers must validate.
func SelectProviders(cfg *config.Config, names []string) ([]config.Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: missing config")
	}
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("app: no providers configured")
	}

	if len(names) == 0 {
		out := make([]config.Provider, 0, len(cfg.Providers))
		for _, p := range cfg.Providers {
			if err := config.ValidateProvider(p); err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	}

	out := make([]config.Provider, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, ok := cfg.FindProvider(name)
		if !ok {
			return nil, fmt.Errorf("app: unknown provider %q (available: %s)",
				name, strings.Join(cfg.ProviderNames(), ", "))
		}
		if err := config.ValidateProvider(p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("app: no providers selected")
	}
	return out, nil
}
