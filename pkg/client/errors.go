package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/jawdriai/api-search/pkg/pagination"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	// It wraps the last transient failure, so errors.As still reveals the
	// underlying APIError and its class (rate_limit, server, ...).
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the caller's context is cancelled
	// during a request or a retry backoff.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrPaginationDivergence is returned when the external API repeats the
	// cursor it was just asked for instead of advancing.
	ErrPaginationDivergence = pagination.ErrDivergence
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassTimeout represents network-level timeouts (transient).
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassNetwork represents connection errors (transient).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassRateLimit represents HTTP 429 responses (transient).
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassServer represents HTTP 5xx responses (transient).
	ErrorClassServer ErrorClass = "server"

	// ErrorClassAuth represents HTTP 401/403 responses (permanent).
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassValidation represents other HTTP 4xx responses (permanent).
	ErrorClassValidation ErrorClass = "validation"
)

// APIError represents an external-API failure with its classification.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("external API %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("external API %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classify categorizes a raw transport outcome. Exactly one of resp and err
// is non-nil.
func classify(resp *http.Response, err error) ErrorClass {
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return ErrorClassTimeout
		}
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrorClassAuth
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassValidation
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error class is transient.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassTimeout, ErrorClassNetwork, ErrorClassRateLimit, ErrorClassServer:
		return true
	default:
		// Auth and validation failures never self-heal via retry.
		return false
	}
}

// errorClassOf extracts the classification from an error produced by a
// request attempt.
func errorClassOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	return classify(nil, err)
}
