package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "statpipe",
		Short: "Run statistics aggregation pipelines",
		Long: `statpipe runs aggregation pipelines over the stat endpoints of the
configured services: query, join, concat, sort, formula and fill_na stages.`,
		Example: `  # Run a definition and print a table
  $ statpipe run --config statpipe.yaml project_servers.json

  # Check definitions without calling any service
  $ statpipe validate *.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./statpipe.yaml)")

	cmd.AddCommand(newRunCmd(&configPath))
	cmd.AddCommand(newValidateCmd(&configPath))

	return cmd
}
