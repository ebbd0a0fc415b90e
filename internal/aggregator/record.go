package aggregator

import "github.com/bgricker/phrasereport/internal/phrase"

// Outcome is what happened to a single phrase during a run.
type Outcome int

const (
	// OutcomePassed means the phrase executed and its step held.
	OutcomePassed Outcome = iota + 1
	// OutcomeFailed means the phrase executed and its step did not hold, or
	// the executor faulted on it.
	OutcomeFailed
	// OutcomeSkipped means an earlier phrase failed so this one never ran.
	OutcomeSkipped
	// OutcomeFiltered means the filter predicate excluded the phrase.
	OutcomeFiltered
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "EXECUTED_PASS"
	case OutcomeFailed:
		return "EXECUTED_FAIL"
	case OutcomeSkipped:
		return "SKIPPED"
	case OutcomeFiltered:
		return "FILTERED"
	default:
		return "UNKNOWN"
	}
}

// PhraseExecutionRecord is the outcome of one phrase. Reason is set only for
// OutcomeFailed; Fault marks a failure caused by the execution machinery.
type PhraseExecutionRecord struct {
	Index   int
	Body    string
	Outcome Outcome
	Reason  string
	Fault   bool
}

func newRecord(p phrase.Phrase, outcome Outcome) PhraseExecutionRecord {
	return PhraseExecutionRecord{Index: p.Index, Body: p.Body, Outcome: outcome}
}

// Listener observes records as they are produced, in index order.
type Listener interface {
	OnRecord(title string, rec PhraseExecutionRecord)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(title string, rec PhraseExecutionRecord)

// OnRecord calls f.
func (f ListenerFunc) OnRecord(title string, rec PhraseExecutionRecord) { f(title, rec) }

// NopListener ignores every record.
var NopListener Listener = ListenerFunc(func(string, PhraseExecutionRecord) {})
