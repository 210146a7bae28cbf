package metrics

import (
	"testing"

	"github.com/stellarlinkco/vfbench/internal/dataset"
	"github.com/stellarlinkco/vfbench/internal/runner"
)

func outcome(file, title string, idx int, expected bool, status runner.Status, predicted bool, elapsed int64) runner.Outcome {
	return runner.Outcome{
		Item: dataset.TestItem{
			SourceFile: file,
			Title:      title,
			LocalIndex: idx,
			Question:   "q",
			Expected:   expected,
		},
		Status:    status,
		Predicted: predicted,
		ElapsedMs: elapsed,
	}
}

func TestFold_Empty(t *testing.T) {
	t.Parallel()

	sum := Fold(nil)
	if sum.Overall.Total != 0 || sum.Overall.Correct != 0 {
		t.Fatalf("Overall: got %+v want zeros", sum.Overall)
	}
	if sum.Overall.Accuracy != 0 {
		t.Fatalf("Accuracy: got %v want 0 (division by zero guard)", sum.Overall.Accuracy)
	}
	if len(sum.ByFile) != 0 || len(sum.ByTitle) != 0 {
		t.Fatalf("groups: got files=%d titles=%d want empty", len(sum.ByFile), len(sum.ByTitle))
	}
}

func TestFold_MixedStatuses(t *testing.T) {
	t.Parallel()

	outcomes := []runner.Outcome{
		outcome("a.json", "Grupo A", 0, true, runner.StatusOK, true, 10),
		outcome("a.json", "Grupo A", 1, false, runner.StatusOK, true, 20),
		outcome("b.json", "Grupo B", 0, true, runner.StatusParseFailure, false, 5),
		outcome("b.json", "Grupo B", 1, false, runner.StatusCallFailure, false, 0),
	}

	sum := Fold(outcomes)

	if sum.Overall.Total != 4 {
		t.Fatalf("Total: got %d want 4", sum.Overall.Total)
	}
	if sum.Overall.Correct != 1 {
		t.Fatalf("Correct: got %d want 1", sum.Overall.Correct)
	}
	if sum.Overall.Accuracy != 0.25 {
		t.Fatalf("Accuracy: got %v want 0.25", sum.Overall.Accuracy)
	}
	if sum.Overall.TotalElapsedMs != 35 {
		t.Fatalf("TotalElapsedMs: got %d want 35", sum.Overall.TotalElapsedMs)
	}
	if sum.ParseFailures != 1 || sum.CallFailures != 1 {
		t.Fatalf("failures: got parse=%d call=%d want 1/1", sum.ParseFailures, sum.CallFailures)
	}

	fa := sum.ByFile["a.json"]
	if fa.Total != 2 || fa.Correct != 1 || fa.Accuracy != 0.5 {
		t.Fatalf("ByFile[a.json]: got %+v", fa)
	}
	fb := sum.ByFile["b.json"]
	if fb.Total != 2 || fb.Correct != 0 || fb.Accuracy != 0 {
		t.Fatalf("ByFile[b.json]: got %+v", fb)
	}
	if _, ok := sum.ByTitle["Grupo A"]; !ok {
		t.Fatalf("ByTitle missing Grupo A")
	}
}

func TestFold_FailedStatusNeverCorrect(t *testing.T) {
	t.Parallel()

	// Predicted matching Expected must not count when the call failed.
	outcomes := []runner.Outcome{
		outcome("a.json", "Grupo A", 0, true, runner.StatusCallFailure, true, 0),
	}
	sum := Fold(outcomes)
	if sum.Overall.Correct != 0 {
		t.Fatalf("Correct: got %d want 0", sum.Overall.Correct)
	}
}

func TestFold_Deterministic(t *testing.T) {
	t.Parallel()

	outcomes := []runner.Outcome{
		outcome("a.json", "Grupo A", 0, true, runner.StatusOK, true, 3),
		outcome("a.json", "Grupo A", 1, false, runner.StatusOK, false, 4),
	}
	a := Fold(outcomes)
	b := Fold(outcomes)
	if a.Overall != b.Overall {
		t.Fatalf("Fold not deterministic: %+v vs %+v", a.Overall, b.Overall)
	}
}
