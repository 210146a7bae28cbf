package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// EnvPath overrides the benchmark file location when set.
const EnvPath = "VFBENCH_DATASET_PATH"

// ErrValidation marks a malformed benchmark file. Validation failures are
// fatal at load time, before any provider call is dispatched.
var ErrValidation = errors.New("dataset: invalid benchmark")

// rawGroup mirrors the file shape. Perguntas is a pointer so an absent field
// can be told apart from a present-but-empty list: absent is an error, empty
// is a legal zero-question group.
type rawGroup struct {
	Arquivo   string    `json:"arquivo"`
	Titulo    string    `json:"titulo"`
	Perguntas *[]string `json:"perguntas"`
}

// Load reads, parses, and validates a benchmark file.
func Load(path string) ([]QuestionGroup, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("dataset: missing path")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", path, err)
	}

	groups, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("dataset: %q: %w", path, err)
	}
	return groups, nil
}

// Parse decodes and validates benchmark JSON.
func Parse(b []byte) ([]QuestionGroup, error) {
	var raw []rawGroup
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrValidation, err)
	}

	out := make([]QuestionGroup, 0, len(raw))
	for i, g := range raw {
		arquivo := strings.TrimSpace(g.Arquivo)
		if arquivo == "" {
			return nil, fmt.Errorf("%w: groups[%d]: missing arquivo", ErrValidation, i)
		}
		titulo := strings.TrimSpace(g.Titulo)
		if titulo == "" {
			return nil, fmt.Errorf("%w: groups[%d] (%s): missing titulo", ErrValidation, i, arquivo)
		}
		if g.Perguntas == nil {
			return nil, fmt.Errorf("%w: groups[%d] (%s): missing perguntas", ErrValidation, i, arquivo)
		}
		for j, q := range *g.Perguntas {
			if strings.TrimSpace(q) == "" {
				return nil, fmt.Errorf("%w: groups[%d] (%s): perguntas[%d]: empty question", ErrValidation, i, arquivo, j)
			}
		}

		out = append(out, QuestionGroup{
			SourceFile: arquivo,
			Title:      titulo,
			Questions:  *g.Perguntas,
		})
	}
	return out, nil
}
