package report

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Status is the terminal outcome of a test case. The numeric values are part of
// the wire format and must not change.
type Status int32

const (
	// StatusNotRun is the initial state and never appears in a finalized report.
	StatusNotRun Status = 0
	// StatusPassed means every non-filtered phrase executed and passed.
	StatusPassed Status = 1
	// StatusFailed means a phrase assertion did not hold.
	StatusFailed Status = 2
	// StatusError means the execution machinery faulted on a phrase.
	StatusError Status = 3
)

var statusNames = map[Status]string{
	StatusNotRun: "NOT_RUN",
	StatusPassed: "PASSED",
	StatusFailed: "FAILED",
	StatusError:  "ERROR",
}

// String returns the canonical upper-case name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// Known reports whether s is one of the closed set of statuses.
func (s Status) Known() bool {
	_, ok := statusNames[s]
	return ok
}

// Terminal reports whether s may appear in a finalized report.
func (s Status) Terminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusError
}

// ParseStatus resolves a canonical status name. UNKNOWN is accepted as an
// alias for NOT_RUN.
func ParseStatus(name string) (Status, error) {
	if name == "UNKNOWN" {
		return StatusNotRun, nil
	}
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return StatusNotRun, fmt.Errorf("%w: %q", ErrUnknownStatus, name)
}

// StatusFromNumber converts a wire enum value, rejecting values outside the set.
func StatusFromNumber(n int32) (Status, error) {
	s := Status(n)
	if !s.Known() {
		return StatusNotRun, fmt.Errorf("%w: %d", ErrUnknownStatus, n)
	}
	return s, nil
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Known() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, int32(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the status name or its number.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseStatus(name)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var n int32
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownStatus, string(data))
	}
	parsed, err := StatusFromNumber(n)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
