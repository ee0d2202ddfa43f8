// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"net/http"
	"testing"
	"time"
)

// TestClientOptions tests that each functional option sets its field
func TestClientOptions(t *testing.T) {
	httpClient := &http.Client{Timeout: time.Second}
	cache := NewMemoryCache(time.Minute)
	logger := NewDefaultLogger(LogLevelWarn)

	tests := []struct {
		name  string
		opt   func(*Client)
		check func(*Client) bool
	}{
		{"APIVersion", APIVersion("v3"), func(c *Client) bool { return c.Version == "v3" }},
		{"BaseURL", BaseURL("http://proxy/api/v2"), func(c *Client) bool { return c.baseURL == "http://proxy/api/v2" }},
		{"VerifyCertificate", VerifyCertificate(false), func(c *Client) bool { return !c.VerifyCertificate }},
		{"HTTPClient", HTTPClient(httpClient), func(c *Client) bool { return c.httpClient == httpClient }},
		{"OperationTimeout", OperationTimeout(30 * time.Second), func(c *Client) bool { return c.OperationTimeout == 30*time.Second }},
		{"MaxRetries", MaxRetries(5), func(c *Client) bool { return c.MaxRetries == 5 }},
		{"BackoffMinDelay", BackoffMinDelay(2 * time.Second), func(c *Client) bool { return c.BackoffMinDelay == 2*time.Second }},
		{"BackoffMaxDelay", BackoffMaxDelay(2 * time.Minute), func(c *Client) bool { return c.BackoffMaxDelay == 2*time.Minute }},
		{"BackoffDelayFactor", BackoffDelayFactor(1.5), func(c *Client) bool { return c.BackoffDelayFactor == 1.5 }},
		{"AutoRefresh", AutoRefresh(false), func(c *Client) bool { return !c.AutoRefresh }},
		{"MaxConcurrent", MaxConcurrent(4), func(c *Client) bool { return c.MaxConcurrent == 4 }},
		{"WithTypeCache", WithTypeCache(cache), func(c *Client) bool { return c.typeCache == TypeCache(cache) }},
		{"WithTypeCache nil", WithTypeCache(nil), func(c *Client) bool { return c.typeCache == nil }},
		{"WithLogger", WithLogger(logger), func(c *Client) bool { return c.logger == Logger(logger) }},
		{"WithPrettyPrintLogs", WithPrettyPrintLogs(true), func(c *Client) bool { return c.prettyPrintLogs }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{
				VerifyCertificate: true,
				AutoRefresh:       true,
				typeCache:         NewMemoryCache(0),
			}
			tt.opt(client)
			if !tt.check(client) {
				t.Errorf("%s option not applied: %+v", tt.name, client)
			}
		})
	}
}

// TestWithLoggerNil tests that a nil logger keeps the existing one
func TestWithLoggerNil(t *testing.T) {
	existing := &NoOpLogger{}
	client := &Client{logger: existing}

	WithLogger(nil)(client)

	if client.logger != Logger(existing) {
		t.Errorf("WithLogger(nil) replaced logger with %T", client.logger)
	}
}

// TestHTTPClientOptionUsed tests that a custom HTTP client is kept by NewClient
func TestHTTPClientOptionUsed(t *testing.T) {
	custom := &http.Client{}
	client, err := NewClient("adx.example.com", HTTPClient(custom))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	if client.httpClient != custom {
		t.Error("NewClient() replaced the custom HTTP client")
	}
}
