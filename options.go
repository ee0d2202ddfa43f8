// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"net/http"
	"time"
)

// Client configuration options using the functional options pattern

// APIVersion sets the REST API version used in the base URL (default: v2)
func APIVersion(version string) func(*Client) {
	return func(c *Client) {
		c.Version = version
	}
}

// BaseURL overrides the base URL derived from host and version.
//
// Mostly useful for tests and for servers behind a reverse proxy that
// rewrites the /api/<version> prefix.
func BaseURL(url string) func(*Client) {
	return func(c *Client) {
		c.baseURL = url
	}
}

// VerifyCertificate enables or disables TLS certificate verification (default: true)
//
// WARNING: Disabling certificate verification makes the connection vulnerable
// to Man-in-the-Middle attacks. Building automation servers frequently ship
// with self-signed certificates; prefer installing the server CA over
// disabling verification.
//
// Example:
//
//	client, _ := metasys.NewClient("adx.example.com",
//	    metasys.VerifyCertificate(false))  // Insecure, use only for testing
func VerifyCertificate(verify bool) func(*Client) {
	return func(c *Client) {
		c.VerifyCertificate = verify
	}
}

// HTTPClient sets the HTTP client used for all requests.
//
// When set, VerifyCertificate is not applied; the caller owns the transport
// configuration.
func HTTPClient(client *http.Client) func(*Client) {
	return func(c *Client) {
		c.httpClient = client
	}
}

// OperationTimeout sets the timeout of a single request attempt (default: 15s)
func OperationTimeout(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.OperationTimeout = duration
	}
}

// MaxRetries sets the maximum number of retry attempts for transient errors (default: 0)
func MaxRetries(retries int) func(*Client) {
	return func(c *Client) {
		c.MaxRetries = retries
	}
}

// BackoffMinDelay sets the minimum backoff delay (default: 1s)
func BackoffMinDelay(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.BackoffMinDelay = duration
	}
}

// BackoffMaxDelay sets the maximum backoff delay (default: 60s)
func BackoffMaxDelay(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.BackoffMaxDelay = duration
	}
}

// BackoffDelayFactor sets the backoff multiplication factor (default: 2.0)
func BackoffDelayFactor(factor float64) func(*Client) {
	return func(c *Client) {
		c.BackoffDelayFactor = factor
	}
}

// AutoRefresh enables or disables scheduling of token refreshes after a
// successful login or refresh (default: true)
func AutoRefresh(enabled bool) func(*Client) {
	return func(c *Client) {
		c.AutoRefresh = enabled
	}
}

// MaxConcurrent bounds the number of in-flight requests issued by
// ReadPropertyMany and WritePropertyMany (default: 10)
func MaxConcurrent(n int) func(*Client) {
	return func(c *Client) {
		c.MaxConcurrent = n
	}
}

// WithTypeCache sets the cache used for type descriptor lookups during
// enumeration. Passing nil disables caching, so every item triggers its own
// type request.
//
// Example:
//
//	client, _ := metasys.NewClient("adx.example.com",
//	    metasys.WithTypeCache(metasys.NewMemoryCache(time.Hour)))
func WithTypeCache(cache TypeCache) func(*Client) {
	return func(c *Client) {
		c.typeCache = cache
	}
}

// WithLogger configures a custom logger for the client
//
// By default, the client uses NoOpLogger which discards all log messages.
// Because failed reads and logins are absorbed rather than returned, the
// logger is the only place those failures surface.
//
// Example:
//
//	logger := metasys.NewDefaultLogger(metasys.LogLevelInfo)
//	client, _ := metasys.NewClient("adx.example.com",
//	    metasys.WithLogger(logger))
func WithLogger(logger Logger) func(*Client) {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrettyPrintLogs enables/disables JSON pretty printing in debug logs
func WithPrettyPrintLogs(enabled bool) func(*Client) {
	return func(c *Client) {
		c.prettyPrintLogs = enabled
	}
}

// Request modifiers for individual operations

// Timeout returns a request modifier that sets a custom timeout for the operation.
//
// The timeout priority model is:
//  1. Request-specific timeout (this modifier) - highest priority
//  2. Context deadline (if already set) - medium priority
//  3. Client.OperationTimeout - fallback default
//
// Example:
//
//	client.SendCommand(ctx, id, "adjust", []any{72.5},
//	    metasys.Timeout(30*time.Second))
func Timeout(duration time.Duration) func(*Req) {
	return func(req *Req) {
		req.Timeout = duration
	}
}

// Priority returns a request modifier that sets the write priority included
// in write bodies, e.g. "writePriorityEnumSet.priorityDefault".
//
// Example:
//
//	client.WriteProperty(ctx, id, map[string]any{"presentValue": 70},
//	    metasys.Priority("writePriorityEnumSet.priorityDefault"))
func Priority(priority string) func(*Req) {
	return func(req *Req) {
		req.Priority = priority
	}
}
