// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
)

// Default client configuration values
const (
	DefaultAPIVersion         = APIVersion2
	DefaultMaxRetries         = 0
	DefaultBackoffMinDelay    = 1 * time.Second
	DefaultBackoffMaxDelay    = 60 * time.Second
	DefaultBackoffDelayFactor = 2
	DefaultOperationTimeout   = 15 * time.Second
	DefaultVerifyCertificate  = true
	DefaultAutoRefresh        = true
	DefaultMaxConcurrent      = 10
	DefaultTypeCacheTTL       = 1 * time.Hour
	DefaultPrettyPrintLogs    = false
)

// Security limits for JSON processing and logging
const (
	MaxJSONSizeForLogging = 1 * 1024 * 1024 // 1MB
	MaxSensitiveFields    = 1000
)

// Logging message constants
const (
	JSONTooLargeMessage     = "[JSON TOO LARGE FOR LOGGING]"
	JSONTooManySensitiveMsg = "[JSON CONTAINS TOO MANY SENSITIVE FIELDS]"
)

// sensitiveFields are the JSON keys whose string values are redacted from logs
var sensitiveFields = []string{"password", "accessToken", "token", "secret"}

var defaultRedactionPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(sensitiveFields))
	for _, field := range sensitiveFields {
		patterns = append(patterns, regexp.MustCompile(`"`+field+`"\s*:\s*"[^"]*"`))
	}
	return patterns
}()

// Client is a REST client for a Metasys building automation server.
//
// A Client owns exactly one session. Login stores a bearer token that is
// attached to every subsequent request, and with AutoRefresh enabled the
// client refreshes the token one minute before it expires.
//
// Read and enumeration methods never return errors: transport and parse
// failures are logged and surface as sentinel values (see Variant and
// EmptyObjectID). Configure a Logger to observe them.
type Client struct {
	// Connection parameters
	Host              string
	Version           string
	VerifyCertificate bool

	// Timeout configuration
	OperationTimeout time.Duration

	// Retry configuration
	MaxRetries         int
	BackoffMinDelay    time.Duration
	BackoffMaxDelay    time.Duration
	BackoffDelayFactor float64

	// AutoRefresh schedules token refreshes after login
	AutoRefresh bool

	// MaxConcurrent bounds fan-out in multi-object operations
	MaxConcurrent int

	baseURL    string
	httpClient *http.Client
	typeCache  TypeCache

	// session holds the current token; nil before login or after a failure.
	// Replaced as a whole, never mutated in place.
	session atomic.Pointer[oauth2.Token]

	// refreshMu guards the refresh timer and its generation counter
	refreshMu    sync.Mutex
	refreshTimer *time.Timer
	refreshGen   uint64
	closed       bool

	// Logging configuration
	logger            Logger
	prettyPrintLogs   bool
	redactionPatterns []*regexp.Regexp
}

// NewClient creates a new client for the server at host.
//
// No request is made; call Login before using the client. Operations issued
// before a successful login are sent without an Authorization header and
// fail the way any rejected request fails.
//
// Example:
//
//	client, err := metasys.NewClient(
//	    "adx.example.com",
//	    metasys.APIVersion("v2"),
//	    metasys.VerifyCertificate(false),
//	    metasys.WithLogger(metasys.NewDefaultLogger(metasys.LogLevelInfo)),
//	)
//	if err != nil {
//	    log.Fatal(err)  // Configuration error
//	}
//	defer client.Close()
//
//	client.Login(ctx, "user", "secret")
//	id := client.GetObjectIdentifier(ctx, "site:adx/Building.AHU1.SAT")
//	value := client.ReadProperty(ctx, id, "presentValue")
//
// Returns a configured Client or an error if configuration validation fails.
func NewClient(host string, opts ...func(*Client)) (*Client, error) {
	client := &Client{
		Host:               host,
		Version:            DefaultAPIVersion,
		VerifyCertificate:  DefaultVerifyCertificate,
		OperationTimeout:   DefaultOperationTimeout,
		MaxRetries:         DefaultMaxRetries,
		BackoffMinDelay:    DefaultBackoffMinDelay,
		BackoffMaxDelay:    DefaultBackoffMaxDelay,
		BackoffDelayFactor: DefaultBackoffDelayFactor,
		AutoRefresh:        DefaultAutoRefresh,
		MaxConcurrent:      DefaultMaxConcurrent,
		typeCache:          NewMemoryCache(DefaultTypeCacheTTL),
		logger:             &NoOpLogger{},
		prettyPrintLogs:    DefaultPrettyPrintLogs,
		redactionPatterns:  defaultRedactionPatterns,
	}

	for _, opt := range opts {
		opt(client)
	}

	if err := client.validateConfig(); err != nil {
		return nil, err
	}

	if client.baseURL == "" {
		client.baseURL = fmt.Sprintf("https://%s/api/%s", client.Host, client.Version)
	}
	client.baseURL = strings.TrimRight(client.baseURL, "/")

	if client.httpClient == nil {
		client.httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: client.MaxConcurrent,
				IdleConnTimeout:     90 * time.Second,
				TLSClientConfig: &tls.Config{
					//nolint:gosec // G402: controlled by VerifyCertificate option
					InsecureSkipVerify: !client.VerifyCertificate,
				},
			},
		}
	}

	client.logger.Info(context.Background(), "Metasys client created",
		"baseURL", client.baseURL,
		"autoRefresh", client.AutoRefresh)

	return client, nil
}

// Close stops any pending token refresh. The client remains usable for
// requests with its current token, but no further refresh is scheduled.
//
// Safe to call multiple times.
func (c *Client) Close() error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.closed = true
	c.refreshGen++
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	return nil
}

// Backoff calculates the backoff delay for retry attempt using exponential backoff with jitter
//
// The formula is: delay = min(minDelay * (factor ^ attempt), maxDelay) + jitter
// where jitter is a random value in [0, delay * 0.1).
func (c *Client) Backoff(attempt int) time.Duration {
	delay := float64(c.BackoffMinDelay) * math.Pow(c.BackoffDelayFactor, float64(attempt))
	if math.IsInf(delay, 1) || delay > float64(c.BackoffMaxDelay) {
		delay = float64(c.BackoffMaxDelay)
	}

	jitterMax := int64(delay * 0.1)
	if jitterMax > 0 {
		var jitterBytes [8]byte
		var jitterVal int64
		if _, err := rand.Read(jitterBytes[:]); err == nil {
			//nolint:gosec // G115: masked to the positive int64 range
			jitterVal = int64(binary.BigEndian.Uint64(jitterBytes[:])&0x7FFFFFFFFFFFFFFF) % jitterMax
		} else {
			jitterVal = (time.Now().UnixNano()%jitterMax + jitterMax) % jitterMax
		}
		delay += float64(jitterVal)
	}

	return time.Duration(delay)
}

// prepareJSONForLogging redacts sensitive data and optionally pretty-prints
// JSON for debug logs. Oversized payloads and payloads with an excessive
// number of sensitive keys are replaced by a placeholder before any regex
// runs.
func (c *Client) prepareJSONForLogging(jsonStr string) string {
	if len(jsonStr) > MaxJSONSizeForLogging {
		return JSONTooLargeMessage
	}

	sensitiveCount := 0
	for _, field := range sensitiveFields {
		sensitiveCount += strings.Count(jsonStr, `"`+field+`"`)
	}
	if sensitiveCount > MaxSensitiveFields {
		c.logger.Warn(context.Background(), "Too many sensitive fields detected",
			"count", sensitiveCount,
			"max", MaxSensitiveFields)
		return JSONTooManySensitiveMsg
	}

	redacted := c.redactSensitiveData(jsonStr)

	if c.prettyPrintLogs {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(redacted), "", "  "); err == nil {
			return buf.String()
		}
	}

	return redacted
}

// redactSensitiveData replaces the string values of sensitive keys with
// [REDACTED].
func (c *Client) redactSensitiveData(json string) string {
	result := json
	for i, pattern := range c.redactionPatterns {
		if i >= len(sensitiveFields) {
			break
		}
		result = pattern.ReplaceAllString(result, `"`+sensitiveFields[i]+`":"[REDACTED]"`)
	}
	return result
}

// validateConfig validates client configuration
//
// Validates:
//   - Host or BaseURL is set
//   - API version is known
//   - Positive operation timeout
//   - Retry parameters (MaxRetries >= 0, BackoffMaxDelay > BackoffMinDelay > 0, factor >= 1.0)
//   - MaxConcurrent >= 1
//
// Returns an error if validation fails.
func (c *Client) validateConfig() error {
	if strings.TrimSpace(c.Host) == "" && c.baseURL == "" {
		return fmt.Errorf("host cannot be empty")
	}

	if err := ValidateAPIVersion(c.Version); err != nil {
		return err
	}

	if c.OperationTimeout <= 0 {
		return fmt.Errorf("operation timeout must be positive, got: %v", c.OperationTimeout)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got: %d", c.MaxRetries)
	}
	if c.BackoffMinDelay <= 0 {
		return fmt.Errorf("backoff min delay must be positive, got: %v", c.BackoffMinDelay)
	}
	if c.BackoffMaxDelay <= c.BackoffMinDelay {
		return fmt.Errorf("backoff max delay (%v) must be greater than min delay (%v)",
			c.BackoffMaxDelay, c.BackoffMinDelay)
	}
	if c.BackoffDelayFactor < 1.0 {
		return fmt.Errorf("backoff delay factor must be >= 1.0, got: %f", c.BackoffDelayFactor)
	}

	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max concurrent must be at least 1, got: %d", c.MaxConcurrent)
	}

	if !c.VerifyCertificate {
		c.logger.Warn(context.Background(), "TLS certificate verification disabled",
			"host", c.Host,
			"security_risk", "Man-in-the-Middle attacks possible")
	}

	return nil
}
