package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "phrasereport",
		Short:         "Phrasereport executes phrase suites and emits one report per test case",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.StringArray("suite", nil, "suite file or directory to include (repeatable)")
	persistent.StringArray("only-tag", nil, "execute only phrases with a matching tag")
	persistent.StringArray("skip-tag", nil, "filter out phrases with a matching tag")
	persistent.StringArray("skip-phrase", nil, "filter out phrases whose body matches")
	persistent.String("format", "json", "report format (json|proto)")
	persistent.String("output-dir", "", "write one report file per test case into this directory")
	persistent.Int("concurrency", 4, "test cases aggregated in parallel")
	persistent.Duration("step-timeout", 0, "fail a step that runs longer than this (0 disables)")
	persistent.BoolP("verbose", "v", false, "stream step output in real time (requires --concurrency 1; goes to stderr unless --output-dir is set)")
	persistent.String("log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newDecodeCmd())

	return cmd
}
