package jama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestErrorFromStatusMapsCodes(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusBadRequest, CodeValidation},
		{http.StatusUnauthorized, CodeAuthentication},
		{http.StatusForbidden, CodePermission},
		{http.StatusNotFound, CodeNotFound},
		{http.StatusConflict, CodeConflict},
		{http.StatusTooManyRequests, CodeRateLimited},
		{http.StatusInternalServerError, CodeServer},
		{http.StatusBadGateway, CodeServer},
		{http.StatusServiceUnavailable, CodeServer},
		{http.StatusTeapot, CodeValidation},
	}
	for _, tt := range tests {
		if got := errorFromStatus(tt.status, nil).Code; got != tt.want {
			t.Errorf("errorFromStatus(%d).Code = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestErrorFromStatusMessage(t *testing.T) {
	err := errorFromStatus(404, []byte(`{"meta": {"status": "Not Found", "message": "Item 99 does not exist"}}`))
	if err.Message != "Item 99 does not exist" {
		t.Errorf("Message = %q, want meta.message", err.Message)
	}

	// Non-JSON bodies fall back to the HTTP status text.
	err = errorFromStatus(502, []byte("<html>bad gateway</html>"))
	if err.Message != "Bad Gateway" {
		t.Errorf("Message = %q, want Bad Gateway", err.Message)
	}

	long := strings.Repeat("x", 600)
	err = errorFromStatus(500, []byte(long))
	if len(err.Details) != 512+len("...") {
		t.Errorf("Details length = %d, want truncated to 515", len(err.Details))
	}
}

func TestErrorString(t *testing.T) {
	err := &Error{Code: CodeNotFound, StatusCode: 404, Message: "Item not found"}
	want := "jama API error 404 (not_found): Item not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &Error{Code: CodeRateLimited, StatusCode: 429}, true},
		{"server", &Error{Code: CodeServer, StatusCode: 503}, true},
		{"wrapped server", fmt.Errorf("request failed: %w", &Error{Code: CodeServer, StatusCode: 500}), true},
		{"validation", &Error{Code: CodeValidation, StatusCode: 400}, false},
		{"not found", &Error{Code: CodeNotFound, StatusCode: 404}, false},
		{"permission", &Error{Code: CodePermission, StatusCode: 403}, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"transport", &url.Error{Op: "Get", URL: "https://x", Err: errors.New("connection refused")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsNotFoundAndIsPermission(t *testing.T) {
	notFound := fmt.Errorf("lookup: %w", &Error{Code: CodeNotFound, StatusCode: 404})
	if !IsNotFound(notFound) {
		t.Error("IsNotFound = false for wrapped 404")
	}
	if IsPermission(notFound) {
		t.Error("IsPermission = true for 404")
	}

	forbidden := &Error{Code: CodePermission, StatusCode: 403}
	if !IsPermission(forbidden) {
		t.Error("IsPermission = false for 403")
	}
	if IsNotFound(errors.New("plain error")) {
		t.Error("IsNotFound = true for untyped error")
	}
}
