// Package prompt carries the system prompt and user template sent with every
// question. The embedded default is the benchmark's canonical pt-BR prompt;
// a YAML file can replace it for prompt experiments.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Prompt defines the system message and the user-message template. The
// template is rendered per question with {{.Question}} available.
type Prompt struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	System   string `yaml:"system"`
	Template string `yaml:"template"`

	tmpl *template.Template
}

// The original benchmark prompt: the model may reason freely but must close
// with an exact "Resposta: Verdadeiro|Falso" line.
const defaultSystem = "Você está sendo avaliado em um benchmark de VERDADEIRO ou FALSO (pt-BR).\n" +
	"Explique brevemente se quiser, MAS OBRIGATORIAMENTE termine a mensagem com uma linha final EXATA:\n" +
	"Resposta: Verdadeiro\n" +
	"ou\n" +
	"Resposta: Falso\n" +
	"A linha 'Resposta:' DEVE aparecer exatamente assim, com 'Verdadeiro' ou 'Falso' no fim."

// Default returns the embedded benchmark prompt.
func Default() *Prompt {
	p := &Prompt{
		Name:     "vf-benchmark",
		Version:  "1.0",
		System:   defaultSystem,
		Template: "{{.Question}}",
	}
	// The embedded template always parses.
	_ = p.compile()
	return p
}

// LoadFromFile loads and validates a prompt definition from a YAML file.
func LoadFromFile(path string) (*Prompt, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt: read %q: %w", path, err)
	}

	var p Prompt
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("prompt: parse %q: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the fields a usable prompt needs.
func (p *Prompt) Validate() error {
	if p == nil {
		return errors.New("prompt: nil prompt")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("prompt: missing name")
	}
	if strings.TrimSpace(p.System) == "" {
		return fmt.Errorf("prompt: %s: missing system message", p.Name)
	}
	if strings.TrimSpace(p.Template) == "" {
		return fmt.Errorf("prompt: %s: missing template", p.Name)
	}
	if !strings.Contains(p.Template, ".Question") {
		return fmt.Errorf("prompt: %s: template does not reference .Question", p.Name)
	}
	return nil
}

// RenderUser renders the user message for one question.
func (p *Prompt) RenderUser(question string) (string, error) {
	if p == nil {
		return "", errors.New("prompt: nil prompt")
	}
	if p.tmpl == nil {
		if err := p.compile(); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, struct{ Question string }{Question: question}); err != nil {
		return "", fmt.Errorf("prompt: render %s: %w", p.Name, err)
	}
	return buf.String(), nil
}

func (p *Prompt) compile() error {
	tmpl, err := template.New(p.Name).Option("missingkey=error").Parse(p.Template)
	if err != nil {
		return fmt.Errorf("prompt: parse template %s: %w", p.Name, err)
	}
	p.tmpl = tmpl
	return nil
}
