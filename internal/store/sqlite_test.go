package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testRun(id, provider, model string, accuracy float64, startedAt time.Time) *RunRecord {
	return &RunRecord{
		ID:             id,
		StartedAt:      startedAt,
		FinishedAt:     startedAt.Add(time.Minute),
		Provider:       provider,
		Model:          model,
		Dataset:        "sample",
		Prompt:         "vf-benchmark",
		Total:          10,
		Correct:        int(accuracy * 10),
		Accuracy:       accuracy,
		ParseFailures:  1,
		CallFailures:   0,
		TotalElapsedMs: 1234,
		Config:         map[string]any{"concurrency": 4},
	}
}

func testItems(runID string) []ItemRecord {
	return []ItemRecord{
		{
			RunID:      runID,
			SourceFile: "b.json",
			Title:      "Grupo B",
			LocalIndex: 0,
			Question:   "pergunta b0",
			Expected:   "Verdadeiro",
			Predicted:  "Verdadeiro",
			Status:     "ok",
			Correct:    true,
			ElapsedMs:  10,
		},
		{
			RunID:       runID,
			SourceFile:  "a.json",
			Title:       "Grupo A",
			LocalIndex:  1,
			Question:    "pergunta a1",
			Expected:    "Falso",
			Status:      "call_failure",
			ErrorDetail: "timeout after 2s",
			ElapsedMs:   2000,
		},
		{
			RunID:      runID,
			SourceFile: "a.json",
			Title:      "Grupo A",
			LocalIndex: 0,
			Question:   "pergunta a0",
			Expected:   "Verdadeiro",
			Predicted:  "Falso",
			Status:     "ok",
			Correct:    false,
			ElapsedMs:  15,
		},
	}
}

func TestSaveRunAndGetRun(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	startedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	run := testRun("run_1", "gpt", "gpt-4o", 0.8, startedAt)
	if err := st.SaveRun(ctx, run, testItems(run.ID)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := st.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Provider != "gpt" || got.Model != "gpt-4o" {
		t.Fatalf("identity: got %q/%q", got.Provider, got.Model)
	}
	if !got.StartedAt.Equal(startedAt) {
		t.Fatalf("StartedAt: got %v want %v", got.StartedAt, startedAt)
	}
	if got.Accuracy != 0.8 || got.Correct != 8 {
		t.Fatalf("metrics: got acc=%v correct=%d", got.Accuracy, got.Correct)
	}
	if got.Config["concurrency"] != float64(4) {
		t.Fatalf("Config: got %v", got.Config)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	_, err := st.GetRun(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("GetRun: got %v want sql.ErrNoRows", err)
	}
}

func TestGetItems_SourceOrder(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	run := testRun("run_items", "gpt", "gpt-4o", 0.5, time.Now().UTC())
	if err := st.SaveRun(ctx, run, testItems(run.ID)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	items, err := st.GetItems(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items): got %d want 3", len(items))
	}

	// Ordered by source_file then local_index, not insertion order.
	wantOrder := []struct {
		file string
		idx  int
	}{
		{"a.json", 0},
		{"a.json", 1},
		{"b.json", 0},
	}
	for i, want := range wantOrder {
		if items[i].SourceFile != want.file || items[i].LocalIndex != want.idx {
			t.Fatalf("items[%d]: got %s/%d want %s/%d",
				i, items[i].SourceFile, items[i].LocalIndex, want.file, want.idx)
		}
	}

	if !items[2].Correct {
		t.Fatalf("items[2].Correct: got false want true")
	}
	if items[1].ErrorDetail != "timeout after 2s" {
		t.Fatalf("items[1].ErrorDetail: got %q", items[1].ErrorDetail)
	}
}

func TestListRuns_FilterAndOrder(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := testRun(fmt.Sprintf("run_gpt_%d", i), "gpt", "gpt-4o", 0.5, base.Add(time.Duration(i)*time.Hour))
		if err := st.SaveRun(ctx, run, nil); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}
	other := testRun("run_sabia", "maritaca", "sabia-3", 0.6, base.Add(30*time.Minute))
	if err := st.SaveRun(ctx, other, nil); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := st.ListRuns(ctx, RunFilter{Provider: "gpt"})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs): got %d want 3", len(runs))
	}
	if runs[0].ID != "run_gpt_2" {
		t.Fatalf("newest first: got %q", runs[0].ID)
	}

	runs, err = st.ListRuns(ctx, RunFilter{Since: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("ListRuns(since): %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run_gpt_2" {
		t.Fatalf("since filter: got %d runs", len(runs))
	}

	runs, err = st.ListRuns(ctx, RunFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListRuns(limit): %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("limit: got %d runs want 2", len(runs))
	}
}

func TestLeaderboard(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	saves := []struct {
		id       string
		provider string
		model    string
		accuracy float64
		at       time.Time
	}{
		{"r1", "gpt", "gpt-4o", 0.7, base},
		{"r2", "gpt", "gpt-4o", 0.9, base.Add(time.Hour)},
		{"r3", "gpt", "gpt-4o", 0.8, base.Add(2 * time.Hour)},
		{"r4", "maritaca", "sabia-3", 0.6, base.Add(time.Hour)},
	}
	for _, s := range saves {
		if err := st.SaveRun(ctx, testRun(s.id, s.provider, s.model, s.accuracy, s.at), nil); err != nil {
			t.Fatalf("SaveRun(%s): %v", s.id, err)
		}
	}

	entries, err := st.Leaderboard(ctx, LeaderboardFilter{})
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries): got %d want 2", len(entries))
	}

	top := entries[0]
	if top.Provider != "gpt" || top.Runs != 3 {
		t.Fatalf("top entry: got %+v", top)
	}
	if top.BestAccuracy != 0.9 {
		t.Fatalf("BestAccuracy: got %v want 0.9", top.BestAccuracy)
	}
	if top.LatestAccuracy != 0.8 || top.LatestRunID != "r3" {
		t.Fatalf("latest: got acc=%v id=%q want 0.8/r3", top.LatestAccuracy, top.LatestRunID)
	}

	if entries[1].Provider != "maritaca" || entries[1].BestAccuracy != 0.6 {
		t.Fatalf("second entry: got %+v", entries[1])
	}
}

func TestSaveRun_Validation(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	if err := st.SaveRun(ctx, nil, nil); err == nil {
		t.Fatalf("SaveRun(nil): expected error")
	}
	if err := st.SaveRun(ctx, &RunRecord{ID: " "}, nil); err == nil {
		t.Fatalf("SaveRun(empty id): expected error")
	}
	if err := st.SaveRun(ctx, &RunRecord{ID: "x"}, nil); err == nil {
		t.Fatalf("SaveRun(zero timestamps): expected error")
	}
}
