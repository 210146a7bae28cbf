package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/vfbench/internal/app"
	"github.com/stellarlinkco/vfbench/internal/config"
	"github.com/stellarlinkco/vfbench/internal/dataset"
	"github.com/stellarlinkco/vfbench/internal/report"
	"github.com/stellarlinkco/vfbench/internal/runner"
	"github.com/stellarlinkco/vfbench/internal/store"
)

type batchOptions struct {
	providers   []string
	datasetPath string
	promptPath  string
	limit       int
	concurrency int
	outputDir   string
	noProgress  bool
	save        bool
}

func newBatchCmd(st *cliState) *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate several providers and write a results directory",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfigInto(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, st, &opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.providers, "provider", nil, "provider names to evaluate (default: all configured)")
	cmd.Flags().StringVar(&opts.datasetPath, "dataset", "", "path to benchmark dataset JSON file")
	cmd.Flags().StringVar(&opts.promptPath, "prompt", "", "path to prompt YAML (default: embedded prompt)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "evaluate at most N questions per provider (0 = all)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "max in-flight requests per provider (overrides config)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "results directory (overrides config)")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "suppress per-question progress output")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist each run to the store")

	return cmd
}

func runBatch(cmd *cobra.Command, st *cliState, opts *batchOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("batch: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("batch: nil options")
	}

	providers, err := app.SelectProviders(st.cfg, opts.providers)
	if err != nil {
		return err
	}

	groups, datasetName, err := app.ResolveDataset(opts.datasetPath, st.cfg)
	if err != nil {
		return err
	}
	items := dataset.Expand(groups)
	if len(items) == 0 {
		return fmt.Errorf("batch: dataset %q has no questions", datasetName)
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
	if !opts.noProgress {
		evalOpts.OnOutcome = func(_ runner.Outcome, snap runner.Snapshot) {
			fmt.Fprintln(stderrWriter, report.ProgressLine(snap))
		}
	}

	out := cmd.OutOrStdout()
	runs := make([]app.ProviderRun, 0, len(providers))
	for _, pcfg := range providers {
		fmt.Fprintf(out, "=== %s (%s) ===\n", pcfg.Name, pcfg.Model)
		run := app.EvalProvider(ctx, pcfg, p, items, evalOpts)
		runs = append(runs, run)
		if run.Err != nil {
			fmt.Fprintf(stderrWriter, "batch: provider %q: %v\n", run.Name, run.Err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		report.PrintSummary(out, run.Model, run.Summary, run.FinishedAt)
	}

	runID, err := app.NewRunID()
	if err != nil {
		return err
	}

	outputDir := strings.TrimSpace(opts.outputDir)
	if outputDir == "" {
		outputDir = strings.TrimSpace(st.cfg.OutputDir)
	}
	if outputDir == "" {
		outputDir = config.DefaultOutputDir
	}

	dir, err := app.WriteRunArtifacts(outputDir, runID, datasetName, runs)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResultados gravados em %s\n", dir)

	if opts.save {
		if err := persistBatch(cmd.Context(), st, runID, datasetName, p.Name, runs); err != nil {
			return err
		}
	}

	return ctx.Err()
}

func persistBatch(ctx context.Context, st *cliState, batchID, datasetName, promptName string, runs []app.ProviderRun) error {
	stor, err := store.Open(st.cfg)
	if err != nil {
		return fmt.Errorf("batch: open store: %w", err)
	}
	defer stor.Close()

	for _, run := range runs {
		if run.Err != nil && len(run.Outcomes) == 0 {
			continue
		}
		runConfig := map[string]any{"provider_type": run.Type, "batch": true}
		if err := app.SaveRun(ctx, stor, batchID+"_"+run.Name, datasetName, promptName, run, runConfig); err != nil {
			return err
		}
	}
	return nil
}
