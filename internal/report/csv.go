// Package report renders run results in the benchmark's published formats:
// a per-item CSV, a detailed JSON report, and console summaries. Field
// names stay in pt-BR because downstream tooling consumes them as-is.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/stellarlinkco/vfbench/internal/runner"
	"github.com/stellarlinkco/vfbench/internal/verdict"
)

var csvHeader = []string{
	"arquivo", "titulo", "idx_local", "pergunta",
	"esperado", "pred", "correta", "resposta_bruta",
}

// WriteCSV writes one row per outcome. Question newlines flatten to spaces;
// raw-response newlines escape to a literal backslash-n so a row stays one
// line even through tools that do not honor quoted fields.
func WriteCSV(w io.Writer, outcomes []runner.Outcome) error {
	if w == nil {
		return errors.New("report: nil writer")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("report: write csv header: %w", err)
	}

	for _, o := range outcomes {
		if err := cw.Write(csvRow(o)); err != nil {
			return fmt.Errorf("report: write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: flush csv: %w", err)
	}
	return nil
}

// SaveCSV writes the CSV to a file.
func SaveCSV(path string, outcomes []runner.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %q: %w", path, err)
	}
	if err := WriteCSV(f, outcomes); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func csvRow(o runner.Outcome) []string {
	pred := ""
	if o.Status == runner.StatusOK {
		pred = verdict.Label(o.Predicted)
	}

	correta := "0"
	if o.Correct() {
		correta = "1"
	}

	raw := o.RawResponse
	if o.Status == runner.StatusCallFailure {
		raw = "[ERRO NA CHAMADA]: " + o.ErrorDetail
	}

	return []string{
		o.Item.SourceFile,
		o.Item.Title,
		fmt.Sprintf("%d", o.Item.LocalIndex),
		flattenNewlines(o.Item.Question),
		verdict.Label(o.Item.Expected),
		pred,
		correta,
		escapeNewlines(raw),
	}
}

func flattenNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func escapeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	return strings.ReplaceAll(s, "\n", "\\n")
}
