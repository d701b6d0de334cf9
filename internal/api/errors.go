package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// NetworkError reports a transport failure: no response was received.
type NetworkError struct {
	Err error
	Op  string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-issuing the call may succeed. A cancelled
// context is final.
func (e *NetworkError) Retryable() bool {
	return !errors.Is(e.Err, context.Canceled)
}

// HTTPError reports a non-2xx response. The response body, if any, is the message.
type HTTPError struct {
	Op     string
	Body   string
	Status int
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// DecodeError reports a response body that does not have the expected shape.
type DecodeError struct {
	Err error
	Op  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an HTTP 404 from the backend.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
