// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	// RefreshLeadTime is how long before expiry a scheduled refresh fires
	RefreshLeadTime = 1 * time.Minute

	// MaxRefreshDelay is the longest delay a refresh is scheduled with.
	// Later expirations are clamped to it; the refresh then fires early and
	// the next one is scheduled from the new expiry.
	MaxRefreshDelay = time.Duration(math.MaxInt32) * time.Millisecond
)

// AccessToken is a snapshot of the session state
type AccessToken struct {
	// Token is the Authorization header value ("Bearer <token>"), empty when
	// there is no session
	Token string

	// Expires is the server-assigned expiry, or the moment the session was
	// cleared
	Expires time.Time
}

// IsValid reports whether the snapshot carries a token that has not expired
func (t AccessToken) IsValid() bool {
	return t.Token != "" && time.Now().Before(t.Expires)
}

func accessTokenFrom(token *oauth2.Token) AccessToken {
	if token == nil || token.AccessToken == "" {
		var expires time.Time
		if token != nil {
			expires = token.Expiry
		}
		return AccessToken{Expires: expires}
	}
	return AccessToken{
		Token:   token.Type() + " " + token.AccessToken,
		Expires: token.Expiry,
	}
}

// Login authenticates with username and password and stores the returned
// bearer token as the client's session.
//
// If AutoRefresh is enabled a refresh is scheduled one minute before the
// token expires. On any failure the session is cleared (empty token, expiry
// now), the failure is logged, and the empty AccessToken is returned.
//
// Example:
//
//	token := client.Login(ctx, "user", "secret")
//	if token.Token == "" {
//	    log.Fatal("login failed, see logs")
//	}
func (c *Client) Login(ctx context.Context, username, password string) AccessToken {
	body, err := Body{}.
		Set("username", username).
		Set("password", password).
		Bytes()
	if err != nil {
		c.logger.Error(ctx, "Metasys login body creation failed", "error", err.Error())
		return c.clearSession()
	}

	res, err := c.request(ctx, "login", http.MethodPost, "login", nil, body, nil)
	if err != nil {
		c.logger.Error(ctx, "Metasys login failed",
			"host", c.Host,
			"status", StatusCode(err),
			"error", err.Error())
		return c.clearSession()
	}

	return c.storeSession(ctx, "login", res)
}

// Refresh exchanges the current token for a new one.
//
// On success the session is replaced and, with AutoRefresh enabled, the next
// refresh is scheduled. On failure the session is cleared exactly as for a
// failed Login. There is no retry: the session stays cleared until the next
// Login.
func (c *Client) Refresh(ctx context.Context) AccessToken {
	res, err := c.request(ctx, "refresh", http.MethodGet, "refreshToken", nil, nil, nil)
	if err != nil {
		c.logger.Error(ctx, "Metasys token refresh failed",
			"host", c.Host,
			"status", StatusCode(err),
			"error", err.Error())
		return c.clearSession()
	}

	return c.storeSession(ctx, "refresh", res)
}

// GetAccessToken returns the current session state without a network call
func (c *Client) GetAccessToken() AccessToken {
	return accessTokenFrom(c.session.Load())
}

// storeSession parses a login or refresh response and installs it as the
// new session.
func (c *Client) storeSession(ctx context.Context, operation string, res gjson.Result) AccessToken {
	accessToken := res.Get("accessToken")
	expires := res.Get("expires")
	if accessToken.Type != gjson.String || accessToken.Str == "" || expires.Type != gjson.String {
		c.logger.Error(ctx, "Metasys session response missing accessToken or expires",
			"operation", operation)
		return c.clearSession()
	}

	expiry, err := time.Parse(time.RFC3339, expires.Str)
	if err != nil {
		c.logger.Error(ctx, "Metasys session response has malformed expires",
			"operation", operation,
			"expires", expires.Str,
			"error", err.Error())
		return c.clearSession()
	}

	token := &oauth2.Token{
		AccessToken: accessToken.Str,
		TokenType:   "Bearer",
		Expiry:      expiry,
	}
	c.session.Store(token)

	c.logger.Info(ctx, "Metasys session established",
		"operation", operation,
		"expires", expiry.Format(time.RFC3339))

	if c.AutoRefresh {
		c.scheduleRefresh(ctx, expiry)
	}

	return accessTokenFrom(token)
}

// clearSession replaces the session with an empty token expiring now and
// cancels any pending refresh.
func (c *Client) clearSession() AccessToken {
	token := &oauth2.Token{Expiry: time.Now()}
	c.session.Store(token)
	c.cancelRefresh()
	return accessTokenFrom(token)
}

// refreshDelay returns how long to wait before refreshing a token that
// expires at expires. Past deadlines yield zero; delays beyond
// MaxRefreshDelay are clamped and reported.
func refreshDelay(expires, now time.Time) (delay time.Duration, clamped bool) {
	delay = expires.Add(-RefreshLeadTime).Sub(now)
	if delay < 0 {
		return 0, false
	}
	if delay > MaxRefreshDelay {
		return MaxRefreshDelay, true
	}
	return delay, false
}

// scheduleRefresh replaces any pending refresh with one that fires
// RefreshLeadTime before expires.
func (c *Client) scheduleRefresh(ctx context.Context, expires time.Time) {
	delay, clamped := refreshDelay(expires, time.Now())
	if clamped {
		c.logger.Warn(ctx, "token refresh delay clamped",
			"expires", expires.Format(time.RFC3339),
			"delay", delay.String())
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.closed {
		return
	}

	c.refreshGen++
	gen := c.refreshGen
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}

	c.refreshTimer = time.AfterFunc(delay, func() {
		c.refreshMu.Lock()
		current := gen == c.refreshGen && !c.closed
		c.refreshMu.Unlock()
		if !current {
			return
		}
		c.Refresh(context.Background())
	})

	c.logger.Debug(ctx, "token refresh scheduled",
		"delay", delay.String())
}

// cancelRefresh stops a pending refresh. A timer that already fired becomes
// a no-op through the generation check.
func (c *Client) cancelRefresh() {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.refreshGen++
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}
