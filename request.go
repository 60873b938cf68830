package ninekw

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

const maxRetries = 3

// rateLimitCooldown is applied when the service answers 429 without a hint.
const rateLimitCooldown = 30 * time.Second

// doGET sends a query-string request for action.
func (c *Client) doGET(ctx context.Context, action string, params url.Values) ([]byte, error) {
	return c.do(ctx, action, "GET", params)
}

// doPOST sends a form-encoded request for action. Used for image uploads.
func (c *Client) doPOST(ctx context.Context, action string, params url.Values) ([]byte, error) {
	return c.do(ctx, action, "POST", params)
}

// do executes one API call with throttling and retries on transport errors,
// 429 and 5xx responses.
func (c *Client) do(ctx context.Context, action, method string, params url.Values) ([]byte, error) {
	var lastErr error
	for attempt := range maxRetries {
		if attempt > 0 {
			if err := c.sleep(ctx, stealth.DefaultBackoff.Duration(attempt)); err != nil {
				return nil, err
			}
		}
		if err := c.throttle(ctx, action); err != nil {
			return nil, err
		}

		var (
			body   []byte
			status int
			err    error
		)
		if method == "POST" {
			body, _, status, err = c.transport.DoWithHeaderOrder(method, c.cfg.Endpoint,
				apiHeaders(c.userAgent, true), strings.NewReader(params.Encode()), apiHeaderOrder)
		} else {
			body, _, status, err = c.transport.DoWithHeaderOrder(method, c.queryURL(params),
				apiHeaders(c.userAgent, false), nil, apiHeaderOrder)
		}
		if err != nil {
			if c.cfg.Proxy != "" && isProxyError(err) {
				slog.Warn("9kw: proxy error",
					slog.String("action", action),
					slog.String("proxy", stealth.MaskProxy(c.cfg.Proxy)),
					slog.Any("error", err))
			} else {
				slog.Debug("9kw: transport error", slog.String("action", action), slog.Any("error", err))
			}
			c.recordAPICall(action, false, false)
			lastErr = err
			continue
		}

		switch {
		case status == 429:
			c.recordAPICall(action, false, true)
			if c.limiter != nil {
				c.limiter.MarkRateLimited(action, time.Now().Add(rateLimitCooldown))
			}
			lastErr = fmt.Errorf("%s: HTTP 429: %w", action, ErrRateLimited)
			continue
		case status >= 500:
			c.recordAPICall(action, false, false)
			lastErr = fmt.Errorf("%s HTTP %d: %s", action, status, truncateBytes(body, 200))
			continue
		case status != 200:
			c.recordAPICall(action, false, false)
			return nil, fmt.Errorf("%s HTTP %d: %s", action, status, truncateBytes(body, 200))
		}

		c.recordAPICall(action, true, false)
		return body, nil
	}

	return nil, fmt.Errorf("%s failed after %d attempts: %w", action, maxRetries, lastErr)
}

// errThrottledPastDeadline means the limiter would hold a call past the
// end of the current wait budget.
var errThrottledPastDeadline = fmt.Errorf("throttled past wait deadline: %w", ErrRateLimited)

// throttle waits until the per-action limiter admits one more request.
// It refuses to sleep past the wait budget or the context deadline.
func (c *Client) throttle(ctx context.Context, action string) error {
	if c.limiter == nil || c.limiter.Allow(action) {
		return nil
	}
	// the limiter keeps its own wall clock
	wait := time.Until(c.limiter.AvailableAt(action))
	if wait <= 0 {
		wait = time.Second
	}
	if d, ok := waitDeadline(ctx); ok && wait > d.Sub(c.now()) {
		return fmt.Errorf("%s: %w", action, errThrottledPastDeadline)
	}
	if d, ok := ctx.Deadline(); ok && wait > time.Until(d) {
		return fmt.Errorf("%s throttled for %s: %w", action, wait, context.DeadlineExceeded)
	}
	slog.Debug("9kw: throttled", slog.String("action", action), slog.Duration("wait", wait))
	return c.sleep(ctx, wait)
}

// isProxyError returns true if the error looks like a proxy connectivity failure.
func isProxyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "proxy") ||
		strings.Contains(msg, "SOCKS") ||
		strings.Contains(msg, "tunnel") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host")
}
