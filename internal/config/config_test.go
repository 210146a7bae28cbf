package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
defaults:
  temperature: 0.2
  max_tokens: 4000
  concurrency: 4
providers:
  - name: gpt
    type: openai
    model: gpt-4o
    api_key: ${VFBENCH_TEST_OPENAI_KEY}
  - name: local
    type: ollama
    model: llama3
    base_url: http://localhost:11434
    timeout_seconds: 30
dataset:
  path: data/questions
output_dir: results
store:
  driver: sqlite
  path: data/test.db
`

func TestParse(t *testing.T) {
	t.Setenv("VFBENCH_TEST_OPENAI_KEY", "sk-test")

	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(cfg.Providers) != 2 {
		t.Fatalf("providers: got %d want 2", len(cfg.Providers))
	}

	gpt := cfg.Providers[0]
	if gpt.APIKey != "sk-test" {
		t.Fatalf("APIKey: got %q want env substitution", gpt.APIKey)
	}
	if gpt.Temperature == nil || *gpt.Temperature != 0.2 {
		t.Fatalf("Temperature: got %v want default 0.2", gpt.Temperature)
	}
	if gpt.MaxTokens != 4000 {
		t.Fatalf("MaxTokens: got %d want 4000", gpt.MaxTokens)
	}
	if gpt.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Fatalf("TimeoutSeconds: got %d want default", gpt.TimeoutSeconds)
	}

	local := cfg.Providers[1]
	if local.TimeoutSeconds != 30 {
		t.Fatalf("TimeoutSeconds: got %d want 30 (explicit beats default)", local.TimeoutSeconds)
	}
	if got := local.Timeout(); got != 30*time.Second {
		t.Fatalf("Timeout: got %v want 30s", got)
	}

	if cfg.Dataset.Path != "data/questions" {
		t.Fatalf("Dataset.Path: got %q", cfg.Dataset.Path)
	}
	if cfg.OutputDir != "results" {
		t.Fatalf("OutputDir: got %q", cfg.OutputDir)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Path != "data/test.db" {
		t.Fatalf("Store: got %+v", cfg.Store)
	}
}

func TestParse_UnresolvedEnvBecomesEmpty(t *testing.T) {
	os.Unsetenv("VFBENCH_TEST_MISSING_KEY")

	cfg, err := Parse([]byte("providers:\n  - name: p\n    type: openai\n    api_key: ${VFBENCH_TEST_MISSING_KEY}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Providers[0].APIKey != "" {
		t.Fatalf("APIKey: got %q want empty", cfg.Providers[0].APIKey)
	}
	if err := ValidateProvider(cfg.Providers[0]); err == nil {
		t.Fatalf("ValidateProvider: expected missing api_key error")
	}
}

func TestParse_DuplicateNames(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("providers:\n  - name: p\n    type: openai\n  - name: P\n    type: ollama\n"))
	if err == nil || !strings.Contains(err.Error(), "duplicate name") {
		t.Fatalf("Parse: got %v want duplicate name error", err)
	}
}

func TestLoad_MissingDefaultPath(t *testing.T) {
	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("Chdir back: %v", err)
		}
	})

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Defaults.MaxTokens != DefaultMaxTokens {
		t.Fatalf("Defaults.MaxTokens: got %d want %d", cfg.Defaults.MaxTokens, DefaultMaxTokens)
	}
	if cfg.OutputDir != DefaultOutputDir {
		t.Fatalf("OutputDir: got %q want %q", cfg.OutputDir, DefaultOutputDir)
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("Load: expected error for missing explicit path")
	}
}

func TestFindProvider(t *testing.T) {
	t.Parallel()

	cfg := &Config{Providers: []Provider{{Name: "GPT", Type: "openai"}}}
	if _, ok := cfg.FindProvider("gpt"); !ok {
		t.Fatalf("FindProvider: case-insensitive lookup failed")
	}
	if _, ok := cfg.FindProvider("other"); ok {
		t.Fatalf("FindProvider: unexpected match")
	}
}

func TestValidateProvider(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		p    Provider
		ok   bool
	}{
		{"openai with key", Provider{Name: "a", Type: "openai", APIKey: "k"}, true},
		{"anthropic missing key", Provider{Name: "b", Type: "anthropic"}, false},
		{"ollama with base url", Provider{Name: "c", Type: "ollama", BaseURL: "http://x"}, true},
		{"ollama missing base url", Provider{Name: "d", Type: "ollama"}, false},
		{"missing type", Provider{Name: "e"}, false},
		{"unknown type", Provider{Name: "f", Type: "cohere"}, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateProvider(tc.p)
			if tc.ok && err != nil {
				t.Fatalf("ValidateProvider: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("ValidateProvider: expected error")
			}
		})
	}
}
