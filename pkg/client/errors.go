package client

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorCode classifies a failed request.
type ErrorCode string

const (
	// CodeNetwork means no response was received (DNS, connect, timeout).
	CodeNetwork ErrorCode = "network"

	// CodeRateLimit means the upstream answered 429.
	CodeRateLimit ErrorCode = "rate_limit"

	// CodeServer means the upstream answered 5xx.
	CodeServer ErrorCode = "server"

	// CodeClient means the upstream answered any other 4xx.
	CodeClient ErrorCode = "client"
)

// APIError is the classified form of any transport failure. Classification
// is deterministic: no response means network (retryable), 429 means rate
// limit (retryable, may carry Retry-After), 5xx means server (retryable),
// any other status means client (fatal).
type APIError struct {
	Message   string
	Status    int
	Code      ErrorCode
	Retryable bool

	// RetryAfter is the upstream-requested wait, parsed from a Retry-After
	// header on a 429 response. Zero when absent or unparseable.
	RetryAfter time.Duration

	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api %s error (status %d): %s", e.Code, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("api %s error: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("api %s error: %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Classify derives an APIError from a transport outcome. Exactly one of
// resp or err is expected to be non-nil; resp must carry a status >= 400.
func Classify(resp *http.Response, err error) *APIError {
	if err != nil {
		return &APIError{
			Message:   "no response received",
			Code:      CodeNetwork,
			Retryable: true,
			Err:       err,
		}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &APIError{
			Message:    resp.Status,
			Status:     resp.StatusCode,
			Code:       CodeRateLimit,
			Retryable:  true,
			RetryAfter: parseRetryAfter(resp.Header),
		}
	case resp.StatusCode >= 500:
		return &APIError{
			Message:   resp.Status,
			Status:    resp.StatusCode,
			Code:      CodeServer,
			Retryable: true,
		}
	default:
		return &APIError{
			Message:   resp.Status,
			Status:    resp.StatusCode,
			Code:      CodeClient,
			Retryable: false,
		}
	}
}

// parseRetryAfter reads an integer-seconds Retry-After header.
// HTTP-date forms are ignored.
func parseRetryAfter(headers http.Header) time.Duration {
	raw := headers.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
