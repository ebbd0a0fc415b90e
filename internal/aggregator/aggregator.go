// Package aggregator drives the phrases of one test case through an executor
// and folds their outcomes into a single report.
//
// Phrases run strictly in index order. The first failing phrase stops
// execution: every later phrase that is not filtered is counted as skipped.
// Filtering always wins over skipping and never counts as a skip.
package aggregator

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bgricker/phrasereport/internal/phrase"
	"github.com/bgricker/phrasereport/internal/report"
)

// DefaultFailureReason is used when an executor reports failure without a reason.
const DefaultFailureReason = "phrase failed"

// StepResult is what an executor returns for a phrase that ran.
type StepResult struct {
	Passed bool
	Reason string
}

// Pass is a successful StepResult.
func Pass() StepResult { return StepResult{Passed: true} }

// Fail is a failed StepResult with the given reason.
func Fail(reason string) StepResult { return StepResult{Reason: reason} }

// Executor runs the step behind a phrase. A returned error is an
// infrastructure fault, not a step failure.
type Executor interface {
	Execute(ctx context.Context, p phrase.Phrase) (StepResult, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, p phrase.Phrase) (StepResult, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, p phrase.Phrase) (StepResult, error) {
	return f(ctx, p)
}

// FilterPredicate reports whether a phrase is excluded from execution.
type FilterPredicate func(p phrase.Phrase) bool

// Aggregator holds configuration only and is safe for concurrent use.
type Aggregator struct {
	listener Listener
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithListener installs a hook that observes every record. nil restores the
// no-op default.
func WithListener(l Listener) Option {
	return func(a *Aggregator) {
		if l == nil {
			l = NopListener
		}
		a.listener = l
	}
}

// New returns an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{listener: NopListener}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes phrases in order and returns the frozen report. Step failures
// and executor faults are folded into the report; only invalid input and
// report-generation faults are returned as errors. ctx is handed to the
// executor unchanged.
func (a *Aggregator) Run(ctx context.Context, title string, phrases []phrase.Phrase, filter FilterPredicate, exec Executor) (report.TechnicalReportData, error) {
	if err := validate(title, phrases, exec); err != nil {
		return report.TechnicalReportData{}, err
	}
	if filter == nil {
		filter = func(phrase.Phrase) bool { return false }
	}

	b := report.NewBuilder(title)
	for _, p := range phrases {
		var rec PhraseExecutionRecord
		switch {
		case filter(p):
			b.Filter(p.Body)
			rec = newRecord(p, OutcomeFiltered)
		case b.HasFailed():
			b.Skip()
			rec = newRecord(p, OutcomeSkipped)
		default:
			rec = a.execute(ctx, exec, p)
			if rec.Outcome == OutcomeFailed {
				status := report.StatusFailed
				if rec.Fault {
					status = report.StatusError
				}
				b.Fail(status, p.Index, p.Body, rec.Reason)
			}
		}
		a.listener.OnRecord(title, rec)
	}
	return b.Build()
}

func (a *Aggregator) execute(ctx context.Context, exec Executor, p phrase.Phrase) (rec PhraseExecutionRecord) {
	defer func() {
		if v := recover(); v != nil {
			rec = newRecord(p, OutcomeFailed)
			rec.Fault = true
			rec.Reason = reason(fmt.Sprintf("step panicked: %v", v))
		}
	}()

	res, err := exec.Execute(ctx, p)
	switch {
	case err != nil:
		rec = newRecord(p, OutcomeFailed)
		rec.Fault = true
		rec.Reason = reason(err.Error())
	case res.Passed:
		rec = newRecord(p, OutcomePassed)
	default:
		rec = newRecord(p, OutcomeFailed)
		rec.Reason = reason(res.Reason)
	}
	return rec
}

// reason makes executor text safe to carry in a report. Executors may echo
// arbitrary process output.
func reason(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if s == "" {
		return DefaultFailureReason
	}
	return s
}

func validate(title string, phrases []phrase.Phrase, exec Executor) error {
	if title == "" {
		return invalid(title, "empty test case title")
	}
	if len(phrases) == 0 {
		return invalid(title, "no phrases")
	}
	if exec == nil {
		return invalid(title, "nil executor")
	}
	if !utf8.ValidString(title) {
		return invalid(title, "title is not valid UTF-8")
	}
	seen := make(map[int]struct{}, len(phrases))
	for pos, p := range phrases {
		if !utf8.ValidString(p.Body) {
			return invalid(title, "phrase %d body is not valid UTF-8", pos)
		}
		if p.Index < 0 {
			return invalid(title, "phrase %d has negative index %d", pos, p.Index)
		}
		if _, dup := seen[p.Index]; dup {
			return invalid(title, "duplicate phrase index %d", p.Index)
		}
		seen[p.Index] = struct{}{}
		if p.Index != pos {
			return invalid(title, "phrase at position %d has index %d", pos, p.Index)
		}
	}
	return nil
}
