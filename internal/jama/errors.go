package jama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// ErrorCode classifies a Jama API failure.
type ErrorCode string

const (
	CodeValidation     ErrorCode = "validation"
	CodeAuthentication ErrorCode = "authentication"
	CodePermission     ErrorCode = "permission"
	CodeNotFound       ErrorCode = "not_found"
	CodeConflict       ErrorCode = "conflict"
	CodeRateLimited    ErrorCode = "rate_limited"
	CodeServer         ErrorCode = "server"
)

// Error is a Jama API failure mapped from an HTTP status code. Message is
// taken from the response's meta.message when the body parses, otherwise
// from the HTTP status text.
type Error struct {
	Code       ErrorCode
	StatusCode int
	Message    string
	Details    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("jama API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// errorFromStatus maps a non-2xx response to a typed *Error.
func errorFromStatus(status int, body []byte) *Error {
	e := &Error{StatusCode: status}

	switch {
	case status == http.StatusBadRequest:
		e.Code = CodeValidation
	case status == http.StatusUnauthorized:
		e.Code = CodeAuthentication
	case status == http.StatusForbidden:
		e.Code = CodePermission
	case status == http.StatusNotFound:
		e.Code = CodeNotFound
	case status == http.StatusConflict:
		e.Code = CodeConflict
	case status == http.StatusTooManyRequests:
		e.Code = CodeRateLimited
	case status >= 500:
		e.Code = CodeServer
	default:
		e.Code = CodeValidation
	}

	var envelope struct {
		Meta Meta `json:"meta"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Meta.Message != "" {
		e.Message = envelope.Meta.Message
	} else {
		e.Message = http.StatusText(status)
	}
	if len(body) > 0 {
		e.Details = truncate(string(body), 512)
	}
	return e
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsNotFound reports whether err is a Jama 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == CodeNotFound
}

// IsPermission reports whether err is a Jama 403.
func IsPermission(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == CodePermission
}

// IsRetryable reports whether a request that produced err may be retried:
// rate limiting, server-side failures, and transport errors qualify.
// Context cancellation and 4xx application errors never do.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == CodeRateLimited || apiErr.Code == CodeServer
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
