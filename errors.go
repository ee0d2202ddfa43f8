// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"errors"
	"fmt"
	"net/http"
)

// Input errors. Public operations short-circuit on these without issuing a
// request; they are logged, never returned.
var (
	ErrEmptyObjectID   = errors.New("metasys: object identifier cannot be empty")
	ErrEmptyAttributes = errors.New("metasys: attribute list cannot be empty")
	ErrEmptyCommand    = errors.New("metasys: command cannot be empty")
	ErrEmptyReference  = errors.New("metasys: object reference cannot be empty")
)

// MetasysError describes a failed request against the REST API
type MetasysError struct {
	// Operation name that failed
	Operation string

	// StatusCode is the HTTP status code, 0 for network-level failures
	StatusCode int

	// Human-readable error message
	Message string

	// InternalMsg contains detailed error information for internal logging
	InternalMsg string

	// Body is the raw response body, if any
	Body string

	// Number of retry attempts made
	Retries int
}

// Error implements the error interface
func (e *MetasysError) Error() string {
	msg := fmt.Sprintf("metasys: %s failed: %s", e.Operation, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("metasys: %s failed: %d %s", e.Operation, e.StatusCode, e.Message)
	}
	if e.Retries > 0 {
		msg += fmt.Sprintf(" (retries: %d)", e.Retries)
	}
	return msg
}

// DetailedError returns the full error message including internal details
// and the response body.
//
// Only use this in logging contexts where disclosure of server responses is
// acceptable.
func (e *MetasysError) DetailedError() string {
	msg := e.Error()
	if e.InternalMsg != "" {
		msg += fmt.Sprintf(" (internal: %s)", e.InternalMsg)
	}
	if e.Body != "" {
		msg += fmt.Sprintf(" (body: %s)", e.Body)
	}
	return msg
}

// TransientError defines a status code that is retried when MaxRetries > 0
type TransientError struct {
	StatusCode int
}

// TransientErrors lists the HTTP status codes treated as transient.
//
// 500 is excluded: the server uses it for permanent failures such as unknown
// attributes as well.
var TransientErrors = []TransientError{
	{StatusCode: http.StatusRequestTimeout},
	{StatusCode: http.StatusTooManyRequests},
	{StatusCode: http.StatusBadGateway},
	{StatusCode: http.StatusServiceUnavailable},
	{StatusCode: http.StatusGatewayTimeout},
}

// IsTransient reports whether err is a MetasysError with a transient status
// code or a network-level failure.
func IsTransient(err error) bool {
	var mErr *MetasysError
	if !errors.As(err, &mErr) {
		return false
	}
	if mErr.StatusCode == 0 {
		return true
	}
	for _, pattern := range TransientErrors {
		if pattern.StatusCode == mErr.StatusCode {
			return true
		}
	}
	return false
}

// StatusCode extracts the HTTP status code from err, or 0 when err does not
// carry one.
func StatusCode(err error) int {
	var mErr *MetasysError
	if errors.As(err, &mErr) {
		return mErr.StatusCode
	}
	return 0
}
