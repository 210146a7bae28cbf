package store

import (
	"context"
	"time"
)

// RunWriter persists a finished run with its per-item outcomes.
type RunWriter interface {
	SaveRun(ctx context.Context, run *RunRecord, items []ItemRecord) error
}

// RunReader reads back persisted runs.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
	GetItems(ctx context.Context, runID string) ([]*ItemRecord, error)
}

// Analytics answers ranking queries over the run history.
type Analytics interface {
	Leaderboard(ctx context.Context, filter LeaderboardFilter) ([]*LeaderboardEntry, error)
}

// Store composes persistence for evaluation runs.
type Store interface {
	RunWriter
	RunReader
	Analytics
	Close() error
}

// RunRecord stores one evaluation run's summary.
type RunRecord struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Provider       string
	Model          string
	Dataset        string
	Prompt         string
	Total          int
	Correct        int
	Accuracy       float64
	ParseFailures  int
	CallFailures   int
	TotalElapsedMs int64
	Config         map[string]any
}

// ItemRecord stores one evaluated question within a run. Predicted is empty
// when the item did not reach a verdict.
type ItemRecord struct {
	RunID       string
	SourceFile  string
	Title       string
	LocalIndex  int
	Question    string
	Expected    string
	Predicted   string
	Status      string
	Correct     bool
	ElapsedMs   int64
	ErrorDetail string
}

// RunFilter narrows run listings.
type RunFilter struct {
	Provider string
	Model    string
	Dataset  string
	Since    time.Time
	Until    time.Time
	Limit    int
}

// LeaderboardFilter narrows leaderboard queries.
type LeaderboardFilter struct {
	Dataset string
	Limit   int
}

// LeaderboardEntry ranks one provider+model combination over its runs.
type LeaderboardEntry struct {
	Provider       string
	Model          string
	Dataset        string
	Runs           int
	BestAccuracy   float64
	LatestAccuracy float64
	LatestRunID    string
	LatestRunAt    time.Time
}
