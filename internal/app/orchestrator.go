package app

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/stellarlinkco/vfbench/internal/config"
	"github.com/stellarlinkco/vfbench/internal/dataset"
	"github.com/stellarlinkco/vfbench/internal/llm"
	"github.com/stellarlinkco/vfbench/internal/metrics"
	"github.com/stellarlinkco/vfbench/internal/prompt"
	"github.com/stellarlinkco/vfbench/internal/report"
	"github.com/stellarlinkco/vfbench/internal/runner"
	"github.com/stellarlinkco/vfbench/internal/store"
)

// ProviderRun is one provider's complete evaluation: its outcomes, the
// folded summary, and timing. Err records provider-level failures
// (construction, run-level cancellation) without stopping a batch.
type ProviderRun struct {
	Name       string
	Type       string
	Model      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []runner.Outcome
	Summary    metrics.Summary
	Err        error
}

// EvalOptions shape one evaluation run.
type EvalOptions struct {
	Concurrency int
	Limit       int
	OnOutcome   runner.OnOutcome
}

// EvalProvider runs the full dataset against one configured provider.
func EvalProvider(ctx context.Context, pcfg config.Provider, p *prompt.Prompt, items []dataset.TestItem, opts EvalOptions) ProviderRun {
	out := ProviderRun{
		Name:      pcfg.Name,
		Type:      pcfg.Type,
		Model:     pcfg.Model,
		StartedAt: time.Now().UTC(),
	}

	provider, err := llm.NewProvider(pcfg)
	if err != nil {
		out.Err = err
		out.FinishedAt = time.Now().UTC()
		return out
	}

	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = config.DefaultConcurrency
	}

	temperature := 0.0
	if pcfg.Temperature != nil {
		temperature = *pcfg.Temperature
	}

	r := runner.New(provider, p, runner.Config{
		Concurrency: concurrency,
		Timeout:     pcfg.Timeout(),
		Temperature: temperature,
		MaxTokens:   pcfg.MaxTokens,
	}, opts.OnOutcome)

	res, err := r.Run(ctx, items)
	out.FinishedAt = time.Now().UTC()
	if res != nil {
		sortOutcomes(res.Outcomes)
		out.Outcomes = res.Outcomes
		out.Summary = metrics.Fold(res.Outcomes)
	}
	out.Err = err
	return out
}

// RunBatch evaluates every selected provider sequentially. One provider's
// failure records a failed ProviderRun and the batch continues; only
// cancellation stops the loop.
func RunBatch(ctx context.Context, providers []config.Provider, p *prompt.Prompt, items []dataset.TestItem, opts EvalOptions) []ProviderRun {
	out := make([]ProviderRun, 0, len(providers))
	for _, pcfg := range providers {
		run := EvalProvider(ctx, pcfg, p, items, opts)
		out = append(out, run)
		if errors.Is(run.Err, context.Canceled) {
			break
		}
	}
	return out
}

// sortOutcomes restores source order for reports; the engine emits in
// completion order.
func sortOutcomes(outcomes []runner.Outcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		a, b := outcomes[i].Item, outcomes[j].Item
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.LocalIndex < b.LocalIndex
	})
}

// NewRunID produces a unique, sortable run identifier.
func NewRunID() (string, error) {
	var buf [8]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		return "", fmt.Errorf("app: generate run id: %w", err)
	}
	return fmt.Sprintf("run_%s_%x", time.Now().UTC().Format("20060102T150405Z"), buf), nil
}

// WriteRunArtifacts creates <outputDir>/<runID>/ with per-provider results
// CSV and detailed JSON, a combined summary CSV, and run metadata JSON.
func WriteRunArtifacts(outputDir, runID, datasetName string, runs []ProviderRun) (string, error) {
	dir := filepath.Join(outputDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("app: create run dir: %w", err)
	}

	for _, run := range runs {
		if run.Err != nil && len(run.Outcomes) == 0 {
			continue
		}
		csvPath := filepath.Join(dir, run.Name+"_results.csv")
		if err := report.SaveCSV(csvPath, run.Outcomes); err != nil {
			return "", err
		}

		detailed := report.NewDetailed(run.Name, run.Model, run.Outcomes, run.Summary, run.FinishedAt)
		jsonPath := filepath.Join(dir, run.Name+"_detailed.json")
		if err := detailed.SaveJSON(jsonPath); err != nil {
			return "", err
		}
	}

	if err := writeCombinedSummary(filepath.Join(dir, "combined_summary.csv"), runs); err != nil {
		return "", err
	}
	if err := writeRunMetadata(filepath.Join(dir, "run_metadata.json"), runID, datasetName, runs); err != nil {
		return "", err
	}
	return dir, nil
}

func writeCombinedSummary(path string, runs []ProviderRun) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("app: create %q: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"provider", "model", "total", "acertos", "acuracia", "sem_resposta", "tempo_total_ms", "erro"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("app: write summary header: %w", err)
	}

	for _, run := range runs {
		errMsg := ""
		if run.Err != nil {
			errMsg = run.Err.Error()
		}
		row := []string{
			run.Name,
			run.Model,
			fmt.Sprintf("%d", run.Summary.Overall.Total),
			fmt.Sprintf("%d", run.Summary.Overall.Correct),
			fmt.Sprintf("%.4f", run.Summary.Overall.Accuracy),
			fmt.Sprintf("%d", run.Summary.ParseFailures+run.Summary.CallFailures),
			fmt.Sprintf("%d", run.Summary.Overall.TotalElapsedMs),
			errMsg,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("app: write summary row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("app: flush summary: %w", err)
	}
	return nil
}

type runMetadata struct {
	RunID     string                `json:"run_id"`
	Dataset   string                `json:"dataset"`
	Timestamp string                `json:"timestamp"`
	Providers []runMetadataProvider `json:"providers"`
}

type runMetadataProvider struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Model      string  `json:"model"`
	Total      int     `json:"total"`
	Correct    int     `json:"acertos"`
	Accuracy   float64 `json:"acuracia"`
	StartedAt  string  `json:"started_at"`
	FinishedAt string  `json:"finished_at"`
	Error      string  `json:"error,omitempty"`
}

func writeRunMetadata(path, runID, datasetName string, runs []ProviderRun) error {
	meta := runMetadata{
		RunID:     runID,
		Dataset:   datasetName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Providers: make([]runMetadataProvider, 0, len(runs)),
	}
	for _, run := range runs {
		mp := runMetadataProvider{
			Name:       run.Name,
			Type:       run.Type,
			Model:      run.Model,
			Total:      run.Summary.Overall.Total,
			Correct:    run.Summary.Overall.Correct,
			Accuracy:   run.Summary.Overall.Accuracy,
			StartedAt:  run.StartedAt.Format(time.RFC3339),
			FinishedAt: run.FinishedAt.Format(time.RFC3339),
		}
		if run.Err != nil {
			mp.Error = run.Err.Error()
		}
		meta.Providers = append(meta.Providers, mp)
	}

	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("app: marshal run metadata: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("app: write run metadata: %w", err)
	}
	return nil
}

// SaveRun persists a finished provider run with its items.
func SaveRun(ctx context.Context, writer store.RunWriter, runID, datasetName, promptName string, run ProviderRun, runConfig map[string]any) error {
	if writer == nil {
		return errors.New("app: missing store")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rec := &store.RunRecord{
		ID:             runID,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
		Provider:       run.Name,
		Model:          run.Model,
		Dataset:        datasetName,
		Prompt:         promptName,
		Total:          run.Summary.Overall.Total,
		Correct:        run.Summary.Overall.Correct,
		Accuracy:       run.Summary.Overall.Accuracy,
		ParseFailures:  run.Summary.ParseFailures,
		CallFailures:   run.Summary.CallFailures,
		TotalElapsedMs: run.Summary.Overall.TotalElapsedMs,
		Config:         runConfig,
	}

	items := make([]store.ItemRecord, 0, len(run.Outcomes))
	for _, o := range run.Outcomes {
		items = append(items, itemRecord(runID, o))
	}

	if err := writer.SaveRun(ctx, rec, items); err != nil {
		return fmt.Errorf("app: save run: %w", err)
	}
	return nil
}

func itemRecord(runID string, o runner.Outcome) store.ItemRecord {
	rec := store.ItemRecord{
		RunID:       runID,
		SourceFile:  o.Item.SourceFile,
		Title:       o.Item.Title,
		LocalIndex:  o.Item.LocalIndex,
		Question:    o.Item.Question,
		Expected:    label(o.Item.Expected),
		Status:      string(o.Status),
		Correct:     o.Correct(),
		ElapsedMs:   o.ElapsedMs,
		ErrorDetail: o.ErrorDetail,
	}
	if o.Status == runner.StatusOK {
		rec.Predicted = label(o.Predicted)
	}
	return rec
}

func label(v bool) string {
	if v {
		return "Verdadeiro"
	}
	return "Falso"
}
