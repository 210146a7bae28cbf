// Package config loads the YAML run configuration: evaluation defaults, the
// provider list, dataset and store locations. ${ENV_VAR} placeholders are
// substituted over the whole document before decoding; unresolved
// placeholders collapse to empty so validation can report the missing value
// by name.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/vfbench.yaml"

const (
	DefaultMaxTokens      = 12000
	DefaultTimeoutSeconds = 120
	DefaultConcurrency    = 10
	DefaultOutputDir      = "evaluation_results"
)

type Config struct {
	Defaults  Defaults      `yaml:"defaults"`
	Providers []Provider    `yaml:"providers,omitempty"`
	Dataset   DatasetConfig `yaml:"dataset"`
	OutputDir string        `yaml:"output_dir,omitempty"`
	Store     StoreConfig   `yaml:"store"`
}

// Defaults apply to every provider that does not override them.
type Defaults struct {
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens,omitempty"`
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"`
	Concurrency    int     `yaml:"concurrency,omitempty"`
}

// Provider describes one model endpoint. Optional fields fall back to
// Defaults at load time, so consumers read them directly.
type Provider struct {
	Name           string   `yaml:"name"`
	Type           string   `yaml:"type"`
	Model          string   `yaml:"model,omitempty"`
	APIKey         string   `yaml:"api_key,omitempty"`
	BaseURL        string   `yaml:"base_url,omitempty"`
	Temperature    *float64 `yaml:"temperature,omitempty"`
	MaxTokens      int      `yaml:"max_tokens,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty"`
}

type DatasetConfig struct {
	Path string `yaml:"path,omitempty"`
}

type StoreConfig struct {
	Driver string `yaml:"driver,omitempty"` // "sqlite" or "memory"
	Path   string `yaml:"path,omitempty"`   // SQLite file path
}

// Timeout returns the provider's per-call timeout.
func (p Provider) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Load reads and decodes a config file. A missing file at the default path
// yields a usable zero config (flags can fully describe a run); a missing
// file at an explicit path is an error.
func Load(path string) (*Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	return Parse(b)
}

// Parse decodes config YAML after env substitution and fills defaults in.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(substituteEnv(b), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	cfg.applyDefaults()

	seen := make(map[string]struct{}, len(cfg.Providers))
	for i := range cfg.Providers {
		name := strings.ToLower(strings.TrimSpace(cfg.Providers[i].Name))
		if name == "" {
			return nil, fmt.Errorf("config: providers[%d]: missing name", i)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("config: providers[%d]: duplicate name %q", i, name)
		}
		seen[name] = struct{}{}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Defaults.MaxTokens <= 0 {
		c.Defaults.MaxTokens = DefaultMaxTokens
	}
	if c.Defaults.TimeoutSeconds <= 0 {
		c.Defaults.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Defaults.Concurrency <= 0 {
		c.Defaults.Concurrency = DefaultConcurrency
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = DefaultOutputDir
	}

	for i := range c.Providers {
		p := &c.Providers[i]
		if p.Temperature == nil {
			t := c.Defaults.Temperature
			p.Temperature = &t
		}
		if p.MaxTokens <= 0 {
			p.MaxTokens = c.Defaults.MaxTokens
		}
		if p.TimeoutSeconds <= 0 {
			p.TimeoutSeconds = c.Defaults.TimeoutSeconds
		}
	}
}

// FindProvider returns the named provider entry.
func (c *Config) FindProvider(name string) (Provider, bool) {
	if c == nil {
		return Provider{}, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range c.Providers {
		if strings.ToLower(strings.TrimSpace(p.Name)) == name {
			return p, true
		}
	}
	return Provider{}, false
}

// ProviderNames lists configured provider names in declaration order.
func (c *Config) ProviderNames() []string {
	if c == nil || len(c.Providers) == 0 {
		return nil
	}
	out := make([]string, 0, len(c.Providers))
	for _, p := range c.Providers {
		out = append(out, strings.TrimSpace(p.Name))
	}
	return out
}

// ValidateProvider checks the fields each provider type requires. Only the
// providers actually selected for a run need to pass.
func ValidateProvider(p Provider) error {
	name := strings.TrimSpace(p.Name)
	switch strings.ToLower(strings.TrimSpace(p.Type)) {
	case "openai", "maritaca", "anthropic", "claude":
		if strings.TrimSpace(p.APIKey) == "" {
			return fmt.Errorf("config: provider %q: missing api_key", name)
		}
	case "ollama":
		if strings.TrimSpace(p.BaseURL) == "" {
			return fmt.Errorf("config: provider %q: missing base_url", name)
		}
	case "":
		return fmt.Errorf("config: provider %q: missing type", name)
	default:
		return fmt.Errorf("config: provider %q: unknown type %q", name, p.Type)
	}
	return nil
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func substituteEnv(b []byte) []byte {
	return envPlaceholder.ReplaceAllFunc(b, func(m []byte) []byte {
		name := envPlaceholder.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}
