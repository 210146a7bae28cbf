// Command vfbench runs the Verdadeiro/Falso benchmark against configured
// LLM providers and manages persisted run history.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/vfbench/internal/config"
)

type cliState struct {
	configPath string
	cfg        *config.Config
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errBelowThreshold) {
			osExit(1)
			return
		}
		fmt.Fprintln(stderrWriter, err)
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	root := &cobra.Command{
		Use:           "vfbench",
		Short:         "Run the Verdadeiro/Falso LLM benchmark",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", "", "path to config file (default "+config.DefaultPath+")")

	root.AddCommand(newRunCmd(st))
	root.AddCommand(newBatchCmd(st))
	root.AddCommand(newHistoryCmd(st))
	root.AddCommand(newLeaderboardCmd(st))
	root.AddCommand(newCICmd(st))
	root.AddCommand(newDatasetCmd(st))
	return root
}

func loadConfigInto(st *cliState) error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	st.cfg = cfg
	return nil
}
