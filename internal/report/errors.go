package report

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStatus is returned when a status value is outside the closed set.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrInvalidReport is returned when a report breaks its own invariants.
	ErrInvalidReport = errors.New("invalid report")
	// ErrReportGeneration matches every GenerationError.
	ErrReportGeneration = errors.New("report generation failed")
)

// GenerationError signals that the phrases ran to completion but describing
// the results failed: finalizing, encoding or writing the report. It is a
// fault of the reporting subsystem, not of the system under test.
type GenerationError struct {
	Title string
	Op    string
	Err   error
}

// NewGenerationError wraps err as a report-generation fault for title.
func NewGenerationError(title, op string, err error) *GenerationError {
	return &GenerationError{Title: title, Op: op, Err: err}
}

func (e *GenerationError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("report %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("report %s for %q: %v", e.Op, e.Title, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrReportGeneration) match any GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrReportGeneration
}
