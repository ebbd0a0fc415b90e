package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bgricker/phrasereport/internal/config"
	"github.com/bgricker/phrasereport/internal/harness"
	"github.com/bgricker/phrasereport/internal/output"
)

// errCasesFailed is returned after the reports are written when any test case
// did not pass.
var errCasesFailed = errors.New("one or more test cases did not pass")

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute suites and emit a report per test case",
		RunE:  runExecute,
	}
}

func runExecute(cmd *cobra.Command, args []string) error {
	cfg, root, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	coll, err := loadSuites(root, cfg)
	if err != nil {
		return err
	}
	rules, err := filterRules(cfg)
	if err != nil {
		return err
	}
	cases, err := buildCases(cmd, root, cfg, coll.Suites)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching test cases")
		return nil
	}

	warnings := collapseWarnings(coll.Warnings)
	for _, msg := range warnings {
		logger.Warn().Msg(msg)
	}

	results := harness.Run(ctx, newAggregator(cmd), cases, harness.Options{
		Concurrency: cfg.Concurrency,
		Filter:      rules.Predicate(),
	})

	var notReported int
	for _, res := range results {
		if res.Err != nil {
			notReported++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s: %v\n", res.Suite, res.Title, res.Err)
		}
	}

	reports := harness.Reports(results)
	doc := output.Document{
		Reports:  reports,
		Summary:  output.Summarize(reports, notReported),
		Warnings: warnings,
	}

	renderer, err := newRenderer(cmd, root, cfg)
	if err != nil {
		return err
	}
	if err := renderer.Render(doc); err != nil {
		return err
	}

	logger.Info().
		Int("test_cases", doc.Summary.TestCases).
		Int("passed", doc.Summary.Passed).
		Int("failed", doc.Summary.Failed).
		Int("errored", doc.Summary.Errored).
		Int("not_reported", doc.Summary.NotReported).
		Msg("run complete")

	if doc.Summary.Passed != doc.Summary.TestCases {
		return errCasesFailed
	}
	return nil
}

func newRenderer(cmd *cobra.Command, root string, cfg config.Config) (output.Renderer, error) {
	if cfg.OutputDir != "" {
		return output.NewDir(resolveOutputDir(root, cfg.OutputDir), cfg.Format)
	}
	switch cfg.Format {
	case config.FormatJSON:
		return output.NewJSON(cmd.OutOrStdout()), nil
	case config.FormatProto:
		return output.NewProto(cmd.OutOrStdout()), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", cfg.Format)
	}
}
