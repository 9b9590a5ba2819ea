package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrNoFiles indicates a submission was attempted with an empty selection
	ErrNoFiles = errors.New("please select at least one image")

	// ErrServerOffline indicates the removal service is unreachable
	ErrServerOffline = errors.New("removal service is unreachable")
)

// RequestError is any failure of a removal request: transport failures and
// server-reported failures alike. It is never classified further.
type RequestError struct {
	StatusCode int    // HTTP status, 0 for transport failures
	Detail     string // Server-supplied "detail" field, if any
	Err        error  // Underlying transport error, if any
}

// Error implements the error interface
func (e *RequestError) Error() string {
	return e.Message()
}

// Message returns the text shown to the user: the server detail when present,
// otherwise the transport error's own message.
func (e *RequestError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// Unwrap returns the underlying transport error
func (e *RequestError) Unwrap() error {
	return e.Err
}

// UserMessage extracts the display text for any error returned by a submission
func UserMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message()
	}
	return err.Error()
}
