package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bgricker/phrasereport/internal/aggregator"
	"github.com/bgricker/phrasereport/internal/config"
	"github.com/bgricker/phrasereport/internal/discovery"
	"github.com/bgricker/phrasereport/internal/harness"
	"github.com/bgricker/phrasereport/internal/logging"
	"github.com/bgricker/phrasereport/internal/runner"
	"github.com/bgricker/phrasereport/internal/suite"
	"github.com/bgricker/phrasereport/internal/suite/filter"
	"github.com/bgricker/phrasereport/internal/suite/yamlsuite"
)

// setup loads configuration, applies flags and installs the logger in the
// command context. It returns the config and the working directory root.
func setup(cmd *cobra.Command) (config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine working directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return config.Config{}, "", err
	}

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flags)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", err
	}

	// cases log from parallel goroutines
	logger, err := logging.New(zerolog.SyncWriter(cmd.ErrOrStderr()), cfg.LogLevel, logging.NewRunID())
	if err != nil {
		return config.Config{}, "", err
	}
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))

	return cfg, root, nil
}

func loadSuites(root string, cfg config.Config) (suite.Collection, error) {
	paths, err := discovery.Suites(root, cfg.Suites)
	if err != nil {
		if errors.Is(err, discovery.ErrNoSuites) {
			return suite.Collection{}, fmt.Errorf("no suites found; specify --suite to provide files")
		}
		return suite.Collection{}, err
	}
	return yamlsuite.NewParser(root).Parse(paths)
}

func filterRules(cfg config.Config) (filter.Rules, error) {
	return filter.CompileRules(cfg.OnlyTags, cfg.SkipTags, cfg.SkipPhrases)
}

// buildCases gives every test case its own executor.
func buildCases(cmd *cobra.Command, root string, cfg config.Config, suites []suite.Suite) ([]harness.Case, error) {
	opts := runner.Options{
		Root:      root,
		Stdout:    cmd.OutOrStdout(),
		Stderr:    cmd.ErrOrStderr(),
		Verbose:   cfg.Verbose,
		Shell:     cfg.Shell,
		TailLines: cfg.TailLines,
		Timeout:   cfg.StepTimeout,
	}
	if cfg.OutputDir == "" {
		// stdout carries the reports
		opts.Stdout = cmd.ErrOrStderr()
	}
	if cfg.Verbose && cfg.Concurrency > 1 {
		// step output from parallel cases would interleave
		opts.Verbose = false
		zerolog.Ctx(cmd.Context()).Warn().
			Int("concurrency", cfg.Concurrency).
			Msg("verbose step output disabled; use --concurrency 1 to stream it")
	}

	var cases []harness.Case
	for _, s := range suites {
		for _, tc := range s.TestCases {
			exec, err := runner.New(s, opts)
			if err != nil {
				return nil, err
			}
			cases = append(cases, harness.Case{
				Suite:    s.Path,
				Title:    tc.Title,
				Phrases:  tc.Phrases,
				Executor: exec,
			})
		}
	}
	return cases, nil
}

func newAggregator(cmd *cobra.Command) *aggregator.Aggregator {
	return aggregator.New(aggregator.WithListener(logging.RecordListener(cmd.Context())))
}

func resolveOutputDir(root, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

func collapseWarnings(warnings []suite.Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, fmt.Sprintf("%s:%s: %s", w.Suite, w.TestCase, w.Message))
	}
	return out
}
