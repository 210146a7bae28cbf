package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	p := Default()
	if p.Name != "vf-benchmark" {
		t.Fatalf("Name: got %q", p.Name)
	}
	if !strings.Contains(p.System, "Resposta: Verdadeiro") {
		t.Fatalf("System missing answer-line instruction: %q", p.System)
	}

	got, err := p.RenderUser("A água ferve a 100°C ao nível do mar.")
	if err != nil {
		t.Fatalf("RenderUser: %v", err)
	}
	if got != "A água ferve a 100°C ao nível do mar." {
		t.Fatalf("RenderUser: got %q", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "p.yaml")
	data := "name: custom\nversion: \"2.0\"\nsystem: Responda com Verdadeiro ou Falso.\ntemplate: \"Pergunta: {{.Question}}\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	p, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if p.Name != "custom" || p.Version != "2.0" {
		t.Fatalf("got name=%q version=%q", p.Name, p.Version)
	}

	got, err := p.RenderUser("2+2=4?")
	if err != nil {
		t.Fatalf("RenderUser: %v", err)
	}
	if got != "Pergunta: 2+2=4?" {
		t.Fatalf("RenderUser: got %q", got)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	t.Parallel()

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("LoadFromFile: expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		p    Prompt
		ok   bool
	}{
		{"valid", Prompt{Name: "n", System: "s", Template: "{{.Question}}"}, true},
		{"missing name", Prompt{System: "s", Template: "{{.Question}}"}, false},
		{"missing system", Prompt{Name: "n", Template: "{{.Question}}"}, false},
		{"missing template", Prompt{Name: "n", System: "s"}, false},
		{"no question ref", Prompt{Name: "n", System: "s", Template: "fixed text"}, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.p.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("Validate: expected error")
			}
		})
	}
}

func TestLoadFromFile_BadTemplate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "p.yaml")
	data := "name: broken\nsystem: s\ntemplate: \"{{.Question\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatalf("LoadFromFile: expected template parse error")
	}
}
