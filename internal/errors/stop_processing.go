package errors

import (
	"errors"
	"fmt"
)

// StopProcessingError is returned when the user quits the book picker. The
// command ends without an error exit.
type StopProcessingError struct {
	Query  string
	Reason string
}

func (e *StopProcessingError) Error() string {
	if e.Query == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s while picking results for %q", e.Reason, e.Query)
}

// NewStopProcessingError records why processing of query stopped.
func NewStopProcessingError(query, reason string) *StopProcessingError {
	return &StopProcessingError{Query: query, Reason: reason}
}

// IsStopProcessingError reports whether err is a StopProcessingError (even when wrapped).
func IsStopProcessingError(err error) bool {
	var stopErr *StopProcessingError
	return errors.As(err, &stopErr)
}
