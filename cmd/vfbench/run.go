package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/vfbench/internal/app"
	"github.com/stellarlinkco/vfbench/internal/config"
	"github.com/stellarlinkco/vfbench/internal/dataset"
	"github.com/stellarlinkco/vfbench/internal/report"
	"github.com/stellarlinkco/vfbench/internal/runner"
	"github.com/stellarlinkco/vfbench/internal/store"
)

type runOptions struct {
	provider string

	// Ad-hoc provider flags, used when --provider is not given.
	providerType string
	model        string
	apiKey       string
	baseURL      string

	datasetPath string
	promptPath  string
	limit       int
	concurrency int
	timeoutSecs int
	temperature float64
	maxTokens   int

	output     string
	csvOut     string
	detailed   string
	noProgress bool
	save       bool
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate one provider against the benchmark",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfigInto(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.provider, "provider", "", "configured provider name")
	cmd.Flags().StringVar(&opts.providerType, "type", "", "ad-hoc provider type: openai|maritaca|ollama|anthropic")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (ad-hoc provider)")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key (ad-hoc provider)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "base URL (ad-hoc provider)")
	cmd.Flags().StringVar(&opts.datasetPath, "dataset", "", "path to benchmark dataset JSON file")
	cmd.Flags().StringVar(&opts.promptPath, "prompt", "", "path to prompt YAML (default: embedded prompt)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "evaluate at most N questions (0 = all)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "max in-flight requests (overrides config)")
	cmd.Flags().IntVar(&opts.timeoutSecs, "timeout", 0, "per-request timeout in seconds (overrides config)")
	cmd.Flags().Float64Var(&opts.temperature, "temperature", -1, "sampling temperature (overrides config)")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", 0, "max response tokens (overrides config)")
	cmd.Flags().StringVar(&opts.output, "output", "", "output format: table|json")
	cmd.Flags().StringVar(&opts.csvOut, "csv-out", "", "write per-question results CSV to path")
	cmd.Flags().StringVar(&opts.detailed, "detailed-report", "", "write detailed JSON report to path")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "suppress per-question progress output")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist the run to the store")

	return cmd
}

func runEvaluation(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}

	output, err := resolveOutputFormat(opts.output)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	pcfg, err := resolveRunProvider(st.cfg, opts)
	if err != nil {
		return err
	}
	applyProviderOverrides(&pcfg, opts)

	groups, datasetName, err := app.ResolveDataset(opts.datasetPath, st.cfg)
	if err != nil {
		return err
	}
	items := dataset.Expand(groups)
	if len(items) == 0 {
		return fmt.Errorf("run: dataset %q has no questions", datasetName)
	}

	p, err := app.ResolvePrompt(opts.promptPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	evalOpts := app.EvalOptions{
		Concurrency: opts.concurrency,
		Limit:       opts.limit,
	}
	if !opts.noProgress && output == formatTable {
		evalOpts.OnOutcome = func(_ runner.Outcome, snap runner.Snapshot) {
			fmt.Fprintln(stderrWriter, report.ProgressLine(snap))
		}
	}

	run := app.EvalProvider(ctx, pcfg, p, items, evalOpts)
	if run.Err != nil && len(run.Outcomes) == 0 {
		return fmt.Errorf("run: provider %q: %w", run.Name, run.Err)
	}

	switch output {
	case formatTable:
		report.PrintSummary(cmd.OutOrStdout(), run.Model, run.Summary, run.FinishedAt)
	case formatJSON:
		detailed := report.NewDetailed(run.Name, run.Model, run.Outcomes, run.Summary, run.FinishedAt)
		if err := detailed.WriteJSON(cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	if path := strings.TrimSpace(opts.csvOut); path != "" {
		if err := report.SaveCSV(path, run.Outcomes); err != nil {
			return err
		}
	}
	if path := strings.TrimSpace(opts.detailed); path != "" {
		detailed := report.NewDetailed(run.Name, run.Model, run.Outcomes, run.Summary, run.FinishedAt)
		if err := detailed.SaveJSON(path); err != nil {
			return err
		}
	}

	if opts.save {
		if err := persistRuns(cmd.Context(), st, datasetName, p.Name, []app.ProviderRun{run}, opts); err != nil {
			return err
		}
	}

	if run.Err != nil {
		return fmt.Errorf("run: provider %q: %w", run.Name, run.Err)
	}
	return nil
}

func resolveRunProvider(cfg *config.Config, opts *runOptions) (config.Provider, error) {
	name := strings.TrimSpace(opts.provider)
	adHoc := strings.TrimSpace(opts.providerType) != ""

	switch {
	case name != "" && adHoc:
		return config.Provider{}, fmt.Errorf("run: --provider and --type are mutually exclusive")
	case name == "" && !adHoc:
		if len(cfg.Providers) == 1 {
			p := cfg.Providers[0]
			if err := config.ValidateProvider(p); err != nil {
				return config.Provider{}, err
			}
			return p, nil
		}
		return config.Provider{}, fmt.Errorf("run: specify --provider <name> or --type <type>")
	case adHoc:
		return adHocProvider(cfg, opts)
	}

	selected, err := app.SelectProviders(cfg, []string{name})
	if err != nil {
		return config.Provider{}, err
	}
	return selected[0], nil
}

func adHocProvider(cfg *config.Config, opts *runOptions) (config.Provider, error) {
	p := config.Provider{
		Name:    strings.TrimSpace(opts.providerType),
		Type:    strings.TrimSpace(opts.providerType),
		Model:   strings.TrimSpace(opts.model),
		APIKey:  strings.TrimSpace(opts.apiKey),
		BaseURL: strings.TrimSpace(opts.baseURL),
	}
	if p.Model != "" {
		p.Name = p.Name + "-" + p.Model
	}
	if cfg != nil {
		if cfg.Defaults.MaxTokens > 0 {
			p.MaxTokens = cfg.Defaults.MaxTokens
		}
		if cfg.Defaults.TimeoutSeconds > 0 {
			p.TimeoutSeconds = cfg.Defaults.TimeoutSeconds
		}
	}
	if err := config.ValidateProvider(p); err != nil {
		return config.Provider{}, err
	}
	return p, nil
}

func applyProviderOverrides(p *config.Provider, opts *runOptions) {
	if opts.timeoutSecs > 0 {
		p.TimeoutSeconds = opts.timeoutSecs
	}
	if opts.temperature >= 0 {
		t := opts.temperature
		p.Temperature = &t
	}
	if opts.maxTokens > 0 {
		p.MaxTokens = opts.maxTokens
	}
}

func persistRuns(ctx context.Context, st *cliState, datasetName, promptName string, runs []app.ProviderRun, opts *runOptions) error {
	stor, err := store.Open(st.cfg)
	if err != nil {
		return fmt.Errorf("run: open store: %w", err)
	}
	defer stor.Close()

	batchID, err := app.NewRunID()
	if err != nil {
		return err
	}

	for _, run := range runs {
		if run.Err != nil && len(run.Outcomes) == 0 {
			continue
		}
		runID := batchID
		if len(runs) > 1 {
			runID = batchID + "_" + run.Name
		}
		runConfig := buildRunConfig(run, opts)
		if err := app.SaveRun(ctx, stor, runID, datasetName, promptName, run, runConfig); err != nil {
			return err
		}
	}
	return nil
}

func buildRunConfig(run app.ProviderRun, opts *runOptions) map[string]any {
	out := map[string]any{
		"provider_type": run.Type,
	}
	if opts == nil {
		return out
	}
	if opts.limit > 0 {
		out["limit"] = opts.limit
	}
	if opts.concurrency > 0 {
		out["concurrency"] = opts.concurrency
	}
	if opts.timeoutSecs > 0 {
		out["timeout_ms"] = (time.Duration(opts.timeoutSecs) * time.Second).Milliseconds()
	}
	if opts.temperature >= 0 {
		out["temperature"] = opts.temperature
	}
	if opts.maxTokens > 0 {
		out["max_tokens"] = opts.maxTokens
	}
	return out
}
