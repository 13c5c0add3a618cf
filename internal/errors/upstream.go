package errors

import (
	"errors"
	"fmt"
)

// UpstreamError is a non-2xx response from an upstream HTTP service.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
}

// NewUpstreamError creates an UpstreamError
func NewUpstreamError(endpoint string, statusCode int) *UpstreamError {
	return &UpstreamError{Endpoint: endpoint, StatusCode: statusCode}
}

// UpstreamStatus returns the HTTP status carried by err, or 0 when err is not an UpstreamError.
func UpstreamStatus(err error) int {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode
	}
	return 0
}
