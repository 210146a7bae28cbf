// Package runner is the evaluation engine: it dispatches test items to a
// provider under bounded concurrency with per-call timeouts, isolates
// per-item failures, and collects exactly one outcome per dispatched item.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stellarlinkco/vfbench/internal/dataset"
	"github.com/stellarlinkco/vfbench/internal/llm"
	"github.com/stellarlinkco/vfbench/internal/prompt"
	"github.com/stellarlinkco/vfbench/internal/verdict"
)

// OnOutcome streams each outcome with the counters as they stood right
// after it was recorded. Called from worker goroutines; implementations
// must be safe for concurrent use.
type OnOutcome func(Outcome, Snapshot)

// Runner drives one evaluation run. The channel semaphore bounds in-flight
// provider calls; concurrency 1 degenerates to sequential processing.
type Runner struct {
	provider  llm.Provider
	prompt    *prompt.Prompt
	cfg       Config
	onOutcome OnOutcome

	sem chan struct{}
}

func New(provider llm.Provider, p *prompt.Prompt, cfg Config, onOutcome OnOutcome) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &Runner{
		provider:  provider,
		prompt:    p,
		cfg:       cfg,
		onOutcome: onOutcome,
		sem:       make(chan struct{}, cfg.Concurrency),
	}
}

// Run evaluates every item and returns one outcome per dispatched item, in
// completion order. Item-level failures never abort the run; a run where
// every call fails still completes and scores 0. On cancellation no new
// items are dispatched, in-flight calls finish or time out, and the
// outcomes produced so far are returned along with ctx.Err().
func (r *Runner) Run(ctx context.Context, items []dataset.TestItem) (*Result, error) {
	if r == nil {
		return nil, errors.New("runner: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("runner: nil context")
	}
	if r.provider == nil {
		return nil, errors.New("runner: nil provider")
	}
	if r.prompt == nil {
		return nil, errors.New("runner: nil prompt")
	}

	start := time.Now()

	var (
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(items))
		progress Progress
		wg       sync.WaitGroup
	)

	record := func(o Outcome) {
		progress.completed.Add(1)
		if o.Correct() {
			progress.correct.Add(1)
		}
		snap := progress.Snapshot()

		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()

		if r.onOutcome != nil {
			r.onOutcome(o, snap)
		}
	}

	var cancelled error
dispatchLoop:
	for i := range items {
		// Cancellation is observed before each new dispatch; the
		// semaphore acquire is ctx-aware so a full pool does not
		// delay shutdown.
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatchLoop
		case r.sem <- struct{}{}:
		}

		progress.dispatched.Add(1)
		item := items[i]

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-r.sem }()
			record(r.evaluate(ctx, item))
		}()
	}

	wg.Wait()

	res := &Result{
		Outcomes:  outcomes,
		ElapsedMs: time.Since(start).Milliseconds(),
	}
	if cancelled != nil {
		return res, cancelled
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// evaluate runs a single item: render, call with timeout, parse. Every
// failure mode maps to an outcome status rather than an error return.
func (r *Runner) evaluate(ctx context.Context, item dataset.TestItem) Outcome {
	out := Outcome{Item: item}

	user, err := r.prompt.RenderUser(item.Question)
	if err != nil {
		out.Status = StatusCallFailure
		out.ErrorDetail = err.Error()
		return out
	}

	// The call context carries only the per-call timeout. Run cancellation
	// stops new dispatches but lets calls already in flight finish or time
	// out on their own.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.provider.Generate(callCtx, &llm.Request{
		System:      r.prompt.System,
		Question:    user,
		Temperature: r.cfg.Temperature,
		MaxTokens:   r.cfg.MaxTokens,
	})
	out.ElapsedMs = time.Since(start).Milliseconds()

	if err != nil {
		out.Status = StatusCallFailure
		out.ErrorDetail = callErrorDetail(err, r.cfg.Timeout)
		return out
	}
	if resp == nil {
		out.Status = StatusCallFailure
		out.ErrorDetail = "empty provider response"
		return out
	}

	out.RawResponse = resp.Text
	predicted, ok := verdict.Parse(resp.Text)
	if !ok {
		out.Status = StatusParseFailure
		out.ErrorDetail = "no verdict marker in response"
		return out
	}

	out.Status = StatusOK
	out.Predicted = predicted
	return out
}

// callErrorDetail names the per-call timeout explicitly; the call context
// never inherits run cancellation, so DeadlineExceeded always means the
// timeout fired.
func callErrorDetail(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("timeout after %s", timeout)
	}
	return err.Error()
}
