package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/stellarlinkco/vfbench/internal/metrics"
	"github.com/stellarlinkco/vfbench/internal/runner"
	"github.com/stellarlinkco/vfbench/internal/verdict"
)

// Detailed is the full JSON report: run metadata, aggregate metrics with
// per-group breakdowns, and every per-item record.
type Detailed struct {
	Timestamp    string        `json:"timestamp"`
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	TotalElapsed int64         `json:"tempo_total_ms"`
	Metrics      DetailMetrics `json:"metrics"`
	Results      []ItemRecord  `json:"results"`
}

type DetailMetrics struct {
	Total       int                        `json:"total"`
	Correct     int                        `json:"acertos"`
	Wrong       int                        `json:"erros"`
	Accuracy    float64                    `json:"acuracia"`
	NoAnswer    int                        `json:"sem_resposta"`
	ByFile      map[string]metrics.Metrics `json:"por_arquivo"`
	ByTitle     map[string]metrics.Metrics `json:"por_titulo"`
	TotalTimeMs int64                      `json:"tempo_total"`
}

// ItemRecord mirrors one CSV row in JSON form.
type ItemRecord struct {
	Arquivo       string `json:"arquivo"`
	Titulo        string `json:"titulo"`
	IdxLocal      int    `json:"idx_local"`
	Pergunta      string `json:"pergunta"`
	Esperado      string `json:"esperado"`
	Pred          string `json:"pred"`
	Correta       bool   `json:"correta"`
	Status        string `json:"status"`
	RespostaBruta string `json:"resposta_bruta"`
	ElapsedMs     int64  `json:"tempo_ms"`
}

// NewDetailed assembles the report from a run's outcomes and folded summary.
func NewDetailed(provider, model string, outcomes []runner.Outcome, sum metrics.Summary, now time.Time) *Detailed {
	out := &Detailed{
		Timestamp:    now.UTC().Format(time.RFC3339),
		Provider:     provider,
		Model:        model,
		TotalElapsed: sum.Overall.TotalElapsedMs,
		Metrics: DetailMetrics{
			Total:       sum.Overall.Total,
			Correct:     sum.Overall.Correct,
			Wrong:       sum.Overall.Total - sum.Overall.Correct,
			Accuracy:    sum.Overall.Accuracy,
			NoAnswer:    sum.ParseFailures + sum.CallFailures,
			ByFile:      sum.ByFile,
			ByTitle:     sum.ByTitle,
			TotalTimeMs: sum.Overall.TotalElapsedMs,
		},
		Results: make([]ItemRecord, 0, len(outcomes)),
	}

	for _, o := range outcomes {
		rec := ItemRecord{
			Arquivo:       o.Item.SourceFile,
			Titulo:        o.Item.Title,
			IdxLocal:      o.Item.LocalIndex,
			Pergunta:      o.Item.Question,
			Esperado:      verdict.Label(o.Item.Expected),
			Correta:       o.Correct(),
			Status:        string(o.Status),
			RespostaBruta: o.RawResponse,
			ElapsedMs:     o.ElapsedMs,
		}
		if o.Status == runner.StatusOK {
			rec.Pred = verdict.Label(o.Predicted)
		}
		if o.Status == runner.StatusCallFailure {
			rec.RespostaBruta = "[ERRO NA CHAMADA]: " + o.ErrorDetail
		}
		out.Results = append(out.Results, rec)
	}

	return out
}

// WriteJSON encodes the detailed report, indented.
func (d *Detailed) WriteJSON(w io.Writer) error {
	if d == nil {
		return errors.New("report: nil detailed report")
	}
	if w == nil {
		return errors.New("report: nil writer")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("report: encode detailed report: %w", err)
	}
	return nil
}

// SaveJSON writes the detailed report to a file.
func (d *Detailed) SaveJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %q: %w", path, err)
	}
	if err := d.WriteJSON(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
