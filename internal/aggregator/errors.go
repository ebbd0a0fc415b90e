package aggregator

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports a malformed run request. It is returned before any
// phrase executes and no report is produced.
type InvalidInputError struct {
	Title  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input for %q: %s", e.Title, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidInput) match any InvalidInputError.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(title, format string, args ...any) error {
	return &InvalidInputError{Title: title, Reason: fmt.Sprintf(format, args...)}
}
