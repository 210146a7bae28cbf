package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/vfbench/internal/store"
)

type historyOptions struct {
	provider string
	model    string
	dataset  string
	limit    int
	since    string
}

func newHistoryCmd(st *cliState) *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show evaluation run history",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfigInto(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider name to filter")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name to filter")
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "dataset to filter")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "max runs to list")
	cmd.Flags().StringVar(&opts.since, "since", "", "only runs since date (YYYY-MM-DD or RFC3339)")

	cmd.AddCommand(newHistoryShowCmd(st))
	return cmd
}

func newHistoryShowCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show details for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, st, args[0])
		},
	}
}

func runHistoryList(cmd *cobra.Command, st *cliState, opts *historyOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("history: nil options")
	}

	since, err := parseSince(opts.since)
	if err != nil {
		return err
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	var reader store.RunReader = stor

	filter := store.RunFilter{
		Provider: strings.TrimSpace(opts.provider),
		Model:    strings.TrimSpace(opts.model),
		Dataset:  strings.TrimSpace(opts.dataset),
		Since:    since,
		Limit:    opts.limit,
	}
	runs, err := reader.ListRuns(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No runs found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN_ID\tSTARTED\tPROVIDER\tMODEL\tDATASET\tTOTAL\tACERTOS\tACURACIA")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%.3f\n",
			r.ID,
			formatTime(r.StartedAt),
			r.Provider,
			r.Model,
			r.Dataset,
			r.Total,
			r.Correct,
			r.Accuracy,
		)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, st *cliState, runID string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}

	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("history: missing run id")
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	var reader store.RunReader = stor

	run, err := reader.GetRun(cmd.Context(), runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("history: run %q not found", runID)
		}
		return err
	}

	items, err := reader.GetItems(cmd.Context(), runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Run: %s\n", run.ID)
	_, _ = fmt.Fprintf(out, "Started: %s\n", formatTime(run.StartedAt))
	_, _ = fmt.Fprintf(out, "Finished: %s\n", formatTime(run.FinishedAt))
	_, _ = fmt.Fprintf(out, "Provider: %s model=%s dataset=%s prompt=%s\n", run.Provider, run.Model, run.Dataset, run.Prompt)
	_, _ = fmt.Fprintf(out, "Perguntas: %d acertos=%d acuracia=%.3f sem_resposta=%d\n",
		run.Total, run.Correct, run.Accuracy, run.ParseFailures+run.CallFailures)

	if len(items) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ARQUIVO\tIDX\tESPERADO\tPRED\tSTATUS\tCORRETA\tLAT(ms)\tERRO")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%v\t%d\t%s\n",
			it.SourceFile,
			it.LocalIndex,
			it.Expected,
			it.Predicted,
			it.Status,
			it.Correct,
			it.ElapsedMs,
			it.ErrorDetail,
		)
	}
	return tw.Flush()
}

func parseSince(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	layouts := []string{time.RFC3339, "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("history: invalid --since %q (expected YYYY-MM-DD or RFC3339)", s)
}
