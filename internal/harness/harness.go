// Package harness runs many test cases through an aggregator, optionally in
// parallel. Each case brings its own phrases and executor; nothing mutable is
// shared between cases.
package harness

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bgricker/phrasereport/internal/aggregator"
	"github.com/bgricker/phrasereport/internal/phrase"
	"github.com/bgricker/phrasereport/internal/report"
)

// Case is one test case to aggregate.
type Case struct {
	Suite    string
	Title    string
	Phrases  []phrase.Phrase
	Executor aggregator.Executor
}

// Result pairs a case with its report or the error that prevented one.
type Result struct {
	Suite    string
	Title    string
	Report   report.TechnicalReportData
	Err      error
	Duration time.Duration
}

// OK reports whether the case produced a passing report.
func (r Result) OK() bool {
	return r.Err == nil && r.Report.Status == report.StatusPassed
}

// Options configure a harness run.
type Options struct {
	// Concurrency bounds the number of cases aggregated at once; values below
	// one run cases sequentially.
	Concurrency int
	Filter      aggregator.FilterPredicate
	Now         func() time.Time
}

// Run aggregates every case and returns results in input order. A case that
// fails validation or report generation records the error and does not stop
// the others.
func Run(ctx context.Context, agg *aggregator.Aggregator, cases []Case, opts Options) []Result {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	results := make([]Result, len(cases))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			results[i] = runCase(ctx, agg, c, opts)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func runCase(ctx context.Context, agg *aggregator.Aggregator, c Case, opts Options) Result {
	logger := zerolog.Ctx(ctx).With().Str("suite", c.Suite).Str("test_case", c.Title).Logger()

	start := opts.Now()
	rep, err := agg.Run(ctx, c.Title, c.Phrases, opts.Filter, c.Executor)
	res := Result{Suite: c.Suite, Title: c.Title, Report: rep, Err: err, Duration: opts.Now().Sub(start)}

	switch {
	case err != nil:
		logger.Error().Err(err).Msg("test case not reported")
	case rep.Failed():
		logger.Warn().
			Str("status", rep.Status.String()).
			Uint32("failing_phrase_index", rep.FailingPhraseIndex).
			Str("failure_reason", rep.FailureReason).
			Uint32("skipped", rep.PhrasesSkippedDueToFailure).
			Dur("duration", res.Duration).
			Msg("test case failed")
	default:
		logger.Info().
			Int("filtered", len(rep.FilteredPhraseBody)).
			Dur("duration", res.Duration).
			Msg("test case passed")
	}
	return res
}

// Reports returns the reports of the cases that produced one, in order.
func Reports(results []Result) []report.TechnicalReportData {
	out := make([]report.TechnicalReportData, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Report)
		}
	}
	return out
}
