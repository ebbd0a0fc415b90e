package output

import (
	"encoding/json"
	"io"

	"github.com/bgricker/phrasereport/internal/report"
)

// Renderer emits a batch of reports to a sink.
type Renderer interface {
	Render(doc Document) error
}

// Document is the batch written by a run.
type Document struct {
	Reports  []report.TechnicalReportData `json:"reports"`
	Summary  Summary                      `json:"summary"`
	Warnings []string                     `json:"warnings,omitempty"`
}

// Summary counts report outcomes across a run.
type Summary struct {
	TestCases   int `json:"test_cases"`
	Passed      int `json:"passed"`
	Failed      int `json:"failed"`
	Errored     int `json:"errored"`
	NotReported int `json:"not_reported"`
}

// Summarize counts reports by status. notReported is the number of test cases
// that produced no report.
func Summarize(reports []report.TechnicalReportData, notReported int) Summary {
	s := Summary{TestCases: len(reports) + notReported, NotReported: notReported}
	for _, r := range reports {
		switch r.Status {
		case report.StatusPassed:
			s.Passed++
		case report.StatusFailed:
			s.Failed++
		case report.StatusError:
			s.Errored++
		}
	}
	return s
}

// JSONRenderer emits the document as indented JSON.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Render validates every report and encodes the document. Any failure is a
// report.GenerationError.
func (j *JSONRenderer) Render(doc Document) error {
	if err := validateAll(doc.Reports); err != nil {
		return err
	}
	if doc.Reports == nil {
		doc.Reports = []report.TechnicalReportData{}
	}
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return report.NewGenerationError("", "write json", err)
	}
	return nil
}

func validateAll(reports []report.TechnicalReportData) error {
	for _, r := range reports {
		if err := r.Validate(); err != nil {
			return report.NewGenerationError(r.TestCaseTitle, "encode", err)
		}
	}
	return nil
}
