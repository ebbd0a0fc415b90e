package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgricker/phrasereport/internal/config"
	"github.com/bgricker/phrasereport/internal/suite"
	"github.com/bgricker/phrasereport/internal/suite/filter"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List test cases and phrases, marking filtered phrases",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, root, err := setup(cmd)
	if err != nil {
		return err
	}

	coll, err := loadSuites(root, cfg)
	if err != nil {
		return err
	}
	rules, err := filterRules(cfg)
	if err != nil {
		return err
	}

	return renderList(cmd, cfg, coll, rules)
}

// listedPhrase is the JSON shape of a phrase in list output.
type listedPhrase struct {
	Index    int      `json:"index"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags,omitempty"`
	Filtered bool     `json:"filtered"`
}

type listedCase struct {
	Suite   string         `json:"suite"`
	Title   string         `json:"title"`
	Phrases []listedPhrase `json:"phrases"`
}

func renderList(cmd *cobra.Command, cfg config.Config, coll suite.Collection, rules filter.Rules) error {
	var cases []listedCase
	for _, s := range coll.Suites {
		for _, tc := range s.TestCases {
			lc := listedCase{Suite: s.Path, Title: tc.Title, Phrases: make([]listedPhrase, 0, len(tc.Phrases))}
			for _, p := range tc.Phrases {
				lc.Phrases = append(lc.Phrases, listedPhrase{
					Index:    p.Index,
					Body:     p.Body,
					Tags:     p.Tags,
					Filtered: rules.Excludes(p),
				})
			}
			cases = append(cases, lc)
		}
	}

	if len(cases) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching test cases")
		return nil
	}

	if cfg.Format == config.FormatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			TestCases []listedCase `json:"test_cases"`
			Warnings  []string     `json:"warnings,omitempty"`
		}{cases, collapseWarnings(coll.Warnings)})
	}

	out := cmd.OutOrStdout()
	for _, lc := range cases {
		fmt.Fprintf(out, "%s (%s)\n", lc.Title, lc.Suite)
		for _, p := range lc.Phrases {
			marker := " "
			if p.Filtered {
				marker = "-"
			}
			fmt.Fprintf(out, "  %s %d. %s\n", marker, p.Index, p.Body)
		}
	}
	for _, msg := range collapseWarnings(coll.Warnings) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
	}
	return nil
}
