package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/vfbench/internal/app"
	"github.com/stellarlinkco/vfbench/internal/ci"
	"github.com/stellarlinkco/vfbench/internal/dataset"
)

var errBelowThreshold = errors.New("vfbench: accuracy below threshold")

type ciOptions struct {
	providers   []string
	datasetPath string
	promptPath  string
	limit       int
	concurrency int
	minAccuracy float64
}

func newCICmd(st *cliState) *cobra.Command {
	var opts ciOptions

	cmd := &cobra.Command{
		Use:   "ci",
		Short: "Run the benchmark as a CI gate",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfigInto(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCI(cmd, st, &opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.providers, "provider", nil, "provider names to evaluate (default: all configured)")
	cmd.Flags().StringVar(&opts.datasetPath, "dataset", "", "path to benchmark dataset JSON file")
	cmd.Flags().StringVar(&opts.promptPath, "prompt", "", "path to prompt YAML (default: embedded prompt)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "evaluate at most N questions per provider (0 = all)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "max in-flight requests per provider (overrides config)")
	cmd.Flags().Float64Var(&opts.minAccuracy, "min-accuracy", 0, "fail when any provider scores below this accuracy")

	return cmd
}

func runCI(cmd *cobra.Command, st *cliState, opts *ciOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("ci: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("ci: nil options")
	}
	if opts.minAccuracy < 0 || opts.minAccuracy > 1 {
		return fmt.Errorf("ci: --min-accuracy must be between 0 and 1 (got %v)", opts.minAccuracy)
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
		return fmt.Errorf("ci: dataset %q has no questions", datasetName)
	}

	p, err := app.ResolvePrompt(opts.promptPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runs := app.RunBatch(ctx, providers, p, items, app.EvalOptions{
		Concurrency: opts.concurrency,
		Limit:       opts.limit,
	})

	out := cmd.OutOrStdout()
	failed := false
	for _, run := range runs {
		if run.Err != nil {
			failed = true
			ci.AddAnnotation("error", "", 0,
				fmt.Sprintf("provider=%s error=%v", run.Name, run.Err))
			fmt.Fprintf(out, "%s: erro: %v\n", run.Name, run.Err)
			continue
		}

		acc := run.Summary.Overall.Accuracy
		fmt.Fprintf(out, "%s (%s): acuracia=%.3f total=%d acertos=%d sem_resposta=%d\n",
			run.Name, run.Model, acc, run.Summary.Overall.Total,
			run.Summary.Overall.Correct, run.Summary.ParseFailures+run.Summary.CallFailures)

		if acc < opts.minAccuracy {
			failed = true
			ci.AddAnnotation("error", "", 0,
				fmt.Sprintf("provider=%s accuracy=%.3f below threshold=%.3f", run.Name, acc, opts.minAccuracy))
		}
	}

	if ci.DetectCI() {
		if err := ci.SetJobSummary(buildCIMarkdown(datasetName, opts.minAccuracy, runs)); err != nil {
			fmt.Fprintf(stderrWriter, "ci: write job summary: %v\n", err)
		}
		ci.SetOutput("passed", fmt.Sprintf("%v", !failed))
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if failed {
		return errBelowThreshold
	}
	return nil
}

func buildCIMarkdown(datasetName string, minAccuracy float64, runs []app.ProviderRun) string {
	var buf strings.Builder
	buf.WriteString("## Benchmark Verdadeiro/Falso\n\n")
	fmt.Fprintf(&buf, "Dataset: %s | Threshold: %.2f\n\n", escapeMarkdownCell(datasetName), minAccuracy)

	if len(runs) == 0 {
		buf.WriteString("_No providers evaluated._\n")
		return buf.String()
	}

	buf.WriteString("| Provider | Model | Perguntas | Acertos | Acurácia | Sem resposta | Erro |\n")
	buf.WriteString("| --- | --- | ---: | ---: | ---: | ---: | --- |\n")
	for _, run := range runs {
		provider := escapeMarkdownCell(run.Name)
		model := escapeMarkdownCell(run.Model)
		if run.Err != nil {
			fmt.Fprintf(&buf, "| %s | %s | - | - | - | - | %s |\n",
				provider, model, escapeMarkdownCell(run.Err.Error()))
			continue
		}
		fmt.Fprintf(&buf, "| %s | %s | %d | %d | %.3f | %d | - |\n",
			provider,
			model,
			run.Summary.Overall.Total,
			run.Summary.Overall.Correct,
			run.Summary.Overall.Accuracy,
			run.Summary.ParseFailures+run.Summary.CallFailures,
		)
	}

	return buf.String()
}

func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	return s
}
