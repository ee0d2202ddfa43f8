// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// MaxResponseSize caps the number of bytes read from a single response
const MaxResponseSize = 32 * 1024 * 1024

// resolveURL joins path onto the base URL. Absolute URLs, such as the
// typeUrl and next links the server embeds in responses, are used as-is.
func (c *Client) resolveURL(path string, query url.Values) string {
	var target string
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		target = path
	} else {
		target = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	if len(query) == 0 {
		return target
	}
	if strings.Contains(target, "?") {
		return target + "&" + query.Encode()
	}
	return target + "?" + query.Encode()
}

// request performs one API call and returns the parsed JSON response.
//
// The current session token, if any, is read once per attempt and attached
// as a bearer header. Without a session the request goes out unauthenticated
// and the server's rejection is returned like any other failure.
//
// Transient failures are retried up to MaxRetries times with Backoff. An empty
// response body yields a zero gjson.Result and no error.
func (c *Client) request(ctx context.Context, operation, method, path string, query url.Values, body []byte, req *Req) (gjson.Result, error) {
	if req == nil {
		req = &Req{}
	}
	target := c.resolveURL(path, query)

	c.logger.Debug(ctx, "Metasys request",
		"operation", operation,
		"method", method,
		"url", target)
	if len(body) > 0 {
		c.logger.Debug(ctx, "Metasys request body",
			"operation", operation,
			"body", c.prepareJSONForLogging(string(body)))
	}

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if err := checkContextCancellation(ctx); err != nil {
			return gjson.Result{}, fmt.Errorf("%s: %w", operation, err)
		}

		attemptCtx, attemptCancel := c.createAttemptContext(ctx, req)
		res, err := c.do(attemptCtx, operation, method, target, body)
		attemptCancel()
		if err == nil {
			return res, nil
		}

		if mErr, ok := err.(*MetasysError); ok {
			mErr.Retries = attempt
		}
		lastErr = err

		if !IsTransient(err) || attempt >= c.MaxRetries || ctx.Err() != nil {
			break
		}

		backoff := c.Backoff(attempt)
		c.logger.Warn(ctx, "transient error, retrying",
			"operation", operation,
			"attempt", attempt+1,
			"max_retries", c.MaxRetries,
			"backoff", backoff,
			"error", err.Error())

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return gjson.Result{}, fmt.Errorf("%s: context canceled during backoff: %w", operation, ctx.Err())
		}
	}

	return gjson.Result{}, lastErr
}

// do executes a single HTTP exchange
func (c *Client) do(ctx context.Context, operation, method, target string, body []byte) (gjson.Result, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return gjson.Result{}, &MetasysError{
			Operation:   operation,
			Message:     "failed to create request",
			InternalMsg: err.Error(),
		}
	}

	if token := c.session.Load(); token != nil && token.AccessToken != "" {
		token.SetAuthHeader(httpReq)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return gjson.Result{}, &MetasysError{
			Operation:   operation,
			Message:     "request failed",
			InternalMsg: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return gjson.Result{}, &MetasysError{
			Operation:   operation,
			StatusCode:  resp.StatusCode,
			Message:     "failed to read response body",
			InternalMsg: err.Error(),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := gjson.GetBytes(respBody, "message").String()
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return gjson.Result{}, &MetasysError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    message,
			Body:       string(respBody),
		}
	}

	c.logger.Debug(ctx, "Metasys response",
		"operation", operation,
		"status", resp.StatusCode,
		"body", c.prepareJSONForLogging(string(respBody)))

	if len(bytes.TrimSpace(respBody)) == 0 {
		return gjson.Result{}, nil
	}
	if !gjson.ValidBytes(respBody) {
		return gjson.Result{}, &MetasysError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    "invalid JSON response",
			Body:       string(respBody),
		}
	}
	return gjson.ParseBytes(respBody), nil
}

// checkContextCancellation checks if context is canceled or deadline exceeded
// without blocking.
func checkContextCancellation(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// createAttemptContext creates the context for a single request attempt.
//
// Timeout priority model:
//  1. Request-specific timeout (req.Timeout > 0) - highest priority
//  2. Existing context deadline (ctx.Deadline() set) - medium priority
//  3. Client default timeout (c.OperationTimeout) - fallback
//
// Caller must call the returned cancel function once the attempt completes.
func (c *Client) createAttemptContext(ctx context.Context, req *Req) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		return context.WithTimeout(ctx, req.Timeout)
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.OperationTimeout)
}
