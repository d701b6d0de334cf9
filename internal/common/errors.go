// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")

	// Import errors.
	ErrNoTransactions = errors.New("no transactions to import")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Retryable reports whether an error may succeed when the same call is made again.
type Retryable interface {
	Retryable() bool
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}

	return false
}
