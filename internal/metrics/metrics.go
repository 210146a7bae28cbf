// Package metrics folds evaluation outcomes into overall and per-group
// accuracy numbers. Fold is a pure reduction: given the same outcomes it
// always produces the same Summary, so callers may recompute at will.
package metrics

import (
	"github.com/stellarlinkco/vfbench/internal/runner"
)

// Metrics is one accuracy bucket, overall or per group.
type Metrics struct {
	Total          int     `json:"total"`
	Correct        int     `json:"acertos"`
	Accuracy       float64 `json:"acuracia"`
	TotalElapsedMs int64   `json:"tempo_total_ms"`
}

// Summary aggregates a full run. Failed items count toward Total but never
// toward Correct; their statuses stay inspectable through ParseFailures and
// CallFailures.
type Summary struct {
	Overall       Metrics
	ByFile        map[string]Metrics
	ByTitle       map[string]Metrics
	ParseFailures int
	CallFailures  int
}

// Fold reduces outcomes into a Summary. Groups with no outcomes are simply
// absent from ByFile/ByTitle rather than reported with zero accuracy.
func Fold(outcomes []runner.Outcome) Summary {
	out := Summary{
		ByFile:  make(map[string]Metrics),
		ByTitle: make(map[string]Metrics),
	}

	for _, o := range outcomes {
		correct := o.Status == runner.StatusOK && o.Predicted == o.Item.Expected

		out.Overall = accumulate(out.Overall, correct, o.ElapsedMs)
		out.ByFile[o.Item.SourceFile] = accumulate(out.ByFile[o.Item.SourceFile], correct, o.ElapsedMs)
		out.ByTitle[o.Item.Title] = accumulate(out.ByTitle[o.Item.Title], correct, o.ElapsedMs)

		switch o.Status {
		case runner.StatusParseFailure:
			out.ParseFailures++
		case runner.StatusCallFailure:
			out.CallFailures++
		}
	}

	out.Overall = finalize(out.Overall)
	for k, m := range out.ByFile {
		out.ByFile[k] = finalize(m)
	}
	for k, m := range out.ByTitle {
		out.ByTitle[k] = finalize(m)
	}
	return out
}

func accumulate(m Metrics, correct bool, elapsedMs int64) Metrics {
	m.Total++
	if correct {
		m.Correct++
	}
	m.TotalElapsedMs += elapsedMs
	return m
}

func finalize(m Metrics) Metrics {
	m.Accuracy = safeRatio(m.Correct, m.Total)
	return m
}

func safeRatio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}
