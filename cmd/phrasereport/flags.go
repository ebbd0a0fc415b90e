package main

import (
	"fmt"

	"github.com/bgricker/phrasereport/internal/config"
	"github.com/spf13/cobra"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	sliceFlags := []struct {
		name string
		dst  *config.SliceFlag
	}{
		{"suite", &values.Suites},
		{"only-tag", &values.OnlyTags},
		{"skip-tag", &values.SkipTags},
		{"skip-phrase", &values.SkipPhrases},
	}
	for _, s := range sliceFlags {
		if !flags.Changed(s.name) {
			continue
		}
		v, err := flags.GetStringArray(s.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", s.name, err)
		}
		*s.dst = config.SliceFlag{Values: append([]string{}, v...)}
	}

	stringFlags := []struct {
		name string
		dst  *config.StringFlag
	}{
		{"format", &values.Format},
		{"output-dir", &values.OutputDir},
		{"log-level", &values.LogLevel},
	}
	for _, s := range stringFlags {
		if !flags.Changed(s.name) {
			continue
		}
		v, err := flags.GetString(s.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", s.name, err)
		}
		*s.dst = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("concurrency") {
		v, err := flags.GetInt("concurrency")
		if err != nil {
			return values, fmt.Errorf("parse --concurrency: %w", err)
		}
		values.Concurrency = config.IntFlag{Value: v, Set: true}
	}

	if flags.Changed("step-timeout") {
		v, err := flags.GetDuration("step-timeout")
		if err != nil {
			return values, fmt.Errorf("parse --step-timeout: %w", err)
		}
		values.StepTimeout = config.DurationFlag{Value: v, Set: true}
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return values, fmt.Errorf("parse --verbose: %w", err)
		}
		values.Verbose = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
