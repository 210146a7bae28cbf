package runner

import (
	"sync/atomic"
	"time"

	"github.com/stellarlinkco/vfbench/internal/dataset"
)

// Status classifies one item's outcome. Failures are data, not control
// flow: they score as wrong answers and never abort the run.
type Status string

const (
	StatusOK           Status = "ok"
	StatusParseFailure Status = "parse_failure"
	StatusCallFailure  Status = "call_failure"
)

// Outcome is the single record produced for each dispatched item. Predicted
// is meaningful only when Status is StatusOK; RawResponse is kept on parse
// failures for manual review and ErrorDetail on call failures.
type Outcome struct {
	Item        dataset.TestItem
	RawResponse string
	Predicted   bool
	Status      Status
	ErrorDetail string
	ElapsedMs   int64
}

// Correct reports whether the model answered and matched the expected
// verdict.
func (o Outcome) Correct() bool {
	return o.Status == StatusOK && o.Predicted == o.Item.Expected
}

// Config defines engine behavior for one run.
type Config struct {
	Concurrency int
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// Progress carries the run's cumulative counters. It is scoped to a single
// run, never global, so concurrent runs stay independent.
type Progress struct {
	dispatched atomic.Int64
	completed  atomic.Int64
	correct    atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Dispatched int64
	Completed  int64
	Correct    int64
}

func (p *Progress) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{}
	}
	return Snapshot{
		Dispatched: p.dispatched.Load(),
		Completed:  p.completed.Load(),
		Correct:    p.correct.Load(),
	}
}

// Accuracy is the running correct/completed ratio.
func (s Snapshot) Accuracy() float64 {
	if s.Completed <= 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Completed)
}

// Result collects everything a finished (or cancelled) run produced.
// Outcomes arrive in completion order; only completeness is guaranteed.
type Result struct {
	Outcomes  []Outcome
	ElapsedMs int64
}
