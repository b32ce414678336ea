package client

import (
	"fmt"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassQuota represents a quota-exceeded response. Recovered
	// locally by rotating the key pool; never surfaced to callers directly.
	ErrorClassQuota ErrorClass = "quota"

	// ErrorClassClient represents non-quota 4xx upstream errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx upstream errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures (timeout, connection,
	// DNS, TLS). Never retried: not known to be key-related.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassParse represents a malformed response body on a 2xx status.
	ErrorClassParse ErrorClass = "parse"
)

// APIError is a typed request failure with enough context for the caller to
// tell "server rejected us" apart from "server sent something we did not
// understand".
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Body       []byte
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("youtube %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("youtube %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-2xx HTTP status to an error class.
func classifyStatus(status int) ErrorClass {
	if status >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}
