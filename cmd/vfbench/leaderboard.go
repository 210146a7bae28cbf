package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/vfbench/internal/store"
)

type leaderboardOptions struct {
	dataset string
	limit   int
}

func newLeaderboardCmd(st *cliState) *cobra.Command {
	var opts leaderboardOptions

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank providers by benchmark accuracy",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfigInto(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "dataset to filter")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "max entries")

	return cmd
}

func runLeaderboard(cmd *cobra.Command, st *cliState, opts *leaderboardOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("leaderboard: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("leaderboard: nil options")
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	var analytics store.Analytics = stor

	entries, err := analytics.Leaderboard(cmd.Context(), store.LeaderboardFilter{
		Dataset: strings.TrimSpace(opts.dataset),
		Limit:   opts.limit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No runs found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPROVIDER\tMODEL\tDATASET\tRUNS\tMELHOR\tULTIMA\tULTIMO_RUN")
	for i, e := range entries {
		if e == nil {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%.3f\t%.3f\t%s\n",
			i+1,
			e.Provider,
			e.Model,
			e.Dataset,
			e.Runs,
			e.BestAccuracy,
			e.LatestAccuracy,
			formatTime(e.LatestRunAt),
		)
	}
	return tw.Flush()
}
