// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TestMetasysError_Error tests the Error() method
func TestMetasysError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      MetasysError
		expected string
	}{
		{
			name: "network failure",
			err: MetasysError{
				Operation:   "login",
				Message:     "request failed",
				InternalMsg: "dial tcp: connection refused",
			},
			expected: "metasys: login failed: request failed",
		},
		{
			name: "HTTP failure",
			err: MetasysError{
				Operation:  "read property",
				StatusCode: http.StatusNotFound,
				Message:    "Not Found",
			},
			expected: "metasys: read property failed: 404 Not Found",
		},
		{
			name: "HTTP failure with retries",
			err: MetasysError{
				Operation:  "write property",
				StatusCode: http.StatusServiceUnavailable,
				Message:    "Service Unavailable",
				Retries:    2,
			},
			expected: "metasys: write property failed: 503 Service Unavailable (retries: 2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestMetasysError_DetailedError tests the DetailedError() method
func TestMetasysError_DetailedError(t *testing.T) {
	tests := []struct {
		name     string
		err      MetasysError
		expected string
	}{
		{
			name:     "no details",
			err:      MetasysError{Operation: "refresh", Message: "request failed"},
			expected: "metasys: refresh failed: request failed",
		},
		{
			name: "internal message",
			err: MetasysError{
				Operation:   "login",
				Message:     "request failed",
				InternalMsg: "context deadline exceeded",
			},
			expected: "metasys: login failed: request failed (internal: context deadline exceeded)",
		},
		{
			name: "body",
			err: MetasysError{
				Operation:  "get commands",
				StatusCode: http.StatusBadRequest,
				Message:    "bad request",
				Body:       `{"message":"bad request"}`,
			},
			expected: `metasys: get commands failed: 400 bad request (body: {"message":"bad request"})`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.DetailedError(); got != tt.expected {
				t.Errorf("DetailedError() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestIsTransient tests transient error classification
func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"network failure", &MetasysError{Operation: "login"}, true},
		{"request timeout", &MetasysError{StatusCode: http.StatusRequestTimeout}, true},
		{"too many requests", &MetasysError{StatusCode: http.StatusTooManyRequests}, true},
		{"bad gateway", &MetasysError{StatusCode: http.StatusBadGateway}, true},
		{"service unavailable", &MetasysError{StatusCode: http.StatusServiceUnavailable}, true},
		{"gateway timeout", &MetasysError{StatusCode: http.StatusGatewayTimeout}, true},
		{"internal server error", &MetasysError{StatusCode: http.StatusInternalServerError}, false},
		{"unauthorized", &MetasysError{StatusCode: http.StatusUnauthorized}, false},
		{"not found", &MetasysError{StatusCode: http.StatusNotFound}, false},
		{"wrapped", fmt.Errorf("read: %w", &MetasysError{StatusCode: http.StatusBadGateway}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestTransientErrors_Coverage checks every listed status is transient
func TestTransientErrors_Coverage(t *testing.T) {
	if len(TransientErrors) != 5 {
		t.Errorf("len(TransientErrors) = %d, want 5", len(TransientErrors))
	}
	for _, te := range TransientErrors {
		if !IsTransient(&MetasysError{StatusCode: te.StatusCode}) {
			t.Errorf("status %d listed but not transient", te.StatusCode)
		}
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("boom"), 0},
		{"metasys error", &MetasysError{StatusCode: 401}, 401},
		{"wrapped", fmt.Errorf("login: %w", &MetasysError{StatusCode: 503}), 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.want {
				t.Errorf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func BenchmarkIsTransient(b *testing.B) {
	err := &MetasysError{StatusCode: http.StatusGatewayTimeout}
	for i := 0; i < b.N; i++ {
		_ = IsTransient(err)
	}
}
