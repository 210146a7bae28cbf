package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/vfbench/internal/app"
	"github.com/stellarlinkco/vfbench/internal/dataset"
)

func newDatasetCmd(st *cliState) *cobra.Command {
	var datasetPath string

	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Inspect the benchmark dataset",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfigInto(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDatasetInfo(cmd, st, datasetPath)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "path to benchmark dataset JSON file")

	return cmd
}

func runDatasetInfo(cmd *cobra.Command, st *cliState, datasetPath string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("dataset: missing config (internal error)")
	}

	groups, name, err := app.ResolveDataset(datasetPath, st.cfg)
	if err != nil {
		return err
	}

	stats := dataset.Summarize(groups)

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Dataset: %s\n", name)
	_, _ = fmt.Fprintf(out, "Arquivos: %d grupos=%d perguntas=%d\n", stats.SourceFiles, stats.Groups, stats.Questions)
	_, _ = fmt.Fprintf(out, "Esperado: verdadeiro=%d falso=%d grupos_impares=%d\n",
		stats.ExpectedTrue, stats.ExpectedFalse, stats.OddGroups)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ARQUIVO\tTITULO\tPERGUNTAS")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", g.SourceFile, g.Title, len(g.Questions))
	}
	return tw.Flush()
}
