package report

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"unicode/utf8"
)

// TechnicalReportData is the frozen summary of one test case run. Values are
// produced by Builder.Build or by decoding and are not mutated afterwards;
// FilteredPhraseBody is copied on the way in and out.
type TechnicalReportData struct {
	TestCaseTitle              string   `json:"test_case_title"`
	Status                     Status   `json:"status"`
	FailingPhrase              string   `json:"failing_phrase"`
	FailureReason              string   `json:"failure_reason"`
	FailingPhraseIndex         uint32   `json:"failing_phrase_index"`
	FilteredPhraseBody         []string `json:"filtered_phrase_body"`
	PhrasesSkippedDueToFailure uint32   `json:"phrases_skipped_due_to_failure"`
}

// Failed reports whether the test case ended in FAILED or ERROR.
func (r TechnicalReportData) Failed() bool {
	return r.Status == StatusFailed || r.Status == StatusError
}

// Filtered returns a copy of the filtered phrase bodies.
func (r TechnicalReportData) Filtered() []string {
	return slices.Clone(r.FilteredPhraseBody)
}

// Equal reports logical equality; a nil and an empty filtered list are equal.
func (r TechnicalReportData) Equal(o TechnicalReportData) bool {
	return r.TestCaseTitle == o.TestCaseTitle &&
		r.Status == o.Status &&
		r.FailingPhrase == o.FailingPhrase &&
		r.FailureReason == o.FailureReason &&
		r.FailingPhraseIndex == o.FailingPhraseIndex &&
		r.PhrasesSkippedDueToFailure == o.PhrasesSkippedDueToFailure &&
		slices.Equal(r.FilteredPhraseBody, o.FilteredPhraseBody)
}

// Validate checks the invariants every finalized report holds.
func (r TechnicalReportData) Validate() error {
	if r.TestCaseTitle == "" {
		return fmt.Errorf("%w: empty test case title", ErrInvalidReport)
	}
	if !r.Status.Known() {
		return fmt.Errorf("%w: %d", ErrUnknownStatus, int32(r.Status))
	}
	if !r.Status.Terminal() {
		return fmt.Errorf("%w: status %s is not terminal", ErrInvalidReport, r.Status)
	}
	if r.Status == StatusPassed {
		if r.FailingPhrase != "" || r.FailureReason != "" || r.FailingPhraseIndex != 0 {
			return fmt.Errorf("%w: passed report carries failure details", ErrInvalidReport)
		}
		if r.PhrasesSkippedDueToFailure != 0 {
			return fmt.Errorf("%w: passed report skipped %d phrases", ErrInvalidReport, r.PhrasesSkippedDueToFailure)
		}
	} else if r.FailureReason == "" {
		return fmt.Errorf("%w: %s report has no failure reason", ErrInvalidReport, r.Status)
	}
	for name, s := range map[string]string{
		"test_case_title": r.TestCaseTitle,
		"failing_phrase":  r.FailingPhrase,
		"failure_reason":  r.FailureReason,
	} {
		if !utf8.ValidString(s) {
			return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidReport, name)
		}
	}
	for i, body := range r.FilteredPhraseBody {
		if !utf8.ValidString(body) {
			return fmt.Errorf("%w: filtered_phrase_body[%d] is not valid UTF-8", ErrInvalidReport, i)
		}
	}
	return nil
}

// MarshalJSON always emits filtered_phrase_body as an array.
func (r TechnicalReportData) MarshalJSON() ([]byte, error) {
	type alias TechnicalReportData
	out := alias(r)
	if out.FilteredPhraseBody == nil {
		out.FilteredPhraseBody = []string{}
	}
	return json.Marshal(out)
}

// Builder accumulates phrase outcomes and freezes them into a report.
type Builder struct {
	title    string
	status   Status
	phrase   string
	reason   string
	index    int
	filtered []string
	skipped  int
}

// NewBuilder starts a report for the given test case.
func NewBuilder(title string) *Builder {
	return &Builder{title: title, status: StatusNotRun}
}

// Filter records a phrase excluded from execution.
func (b *Builder) Filter(body string) {
	b.filtered = append(b.filtered, body)
}

// Skip records a phrase not executed because an earlier one failed.
func (b *Builder) Skip() {
	b.skipped++
}

// Fail records the first failing phrase. status must be FAILED or ERROR; later
// calls are ignored.
func (b *Builder) Fail(status Status, index int, body, reason string) {
	if b.status != StatusNotRun {
		return
	}
	b.status = status
	b.index = index
	b.phrase = body
	b.reason = reason
}

// HasFailed reports whether a failure has been recorded.
func (b *Builder) HasFailed() bool {
	return b.status != StatusNotRun
}

// Build derives the status and returns the frozen report. Any invariant
// violation is a GenerationError.
func (b *Builder) Build() (TechnicalReportData, error) {
	status := b.status
	if status == StatusNotRun {
		status = StatusPassed
	}
	if b.index < 0 || int64(b.index) > math.MaxUint32 {
		return TechnicalReportData{}, NewGenerationError(b.title, "build", fmt.Errorf("failing phrase index %d out of range", b.index))
	}
	if int64(b.skipped) > math.MaxUint32 {
		return TechnicalReportData{}, NewGenerationError(b.title, "build", fmt.Errorf("skip count %d out of range", b.skipped))
	}
	r := TechnicalReportData{
		TestCaseTitle:              b.title,
		Status:                     status,
		FailingPhrase:              b.phrase,
		FailureReason:              b.reason,
		FailingPhraseIndex:         uint32(b.index),
		FilteredPhraseBody:         slices.Clone(b.filtered),
		PhrasesSkippedDueToFailure: uint32(b.skipped),
	}
	if err := r.Validate(); err != nil {
		return TechnicalReportData{}, NewGenerationError(b.title, "build", err)
	}
	return r, nil
}
