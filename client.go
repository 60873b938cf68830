// Package ninekw is a client for the 9kw.eu captcha solving service.
package ninekw

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// Transport performs one HTTP round trip. *stealth.BrowserClient implements it.
type Transport interface {
	DoWithHeaderOrder(method, urlStr string, headers map[string]string, body io.Reader, order []string) ([]byte, map[string]string, int, error)
}

// Client talks to the 9kw.eu captcha service.
type Client struct {
	transport Transport
	limiter   *ratelimit.Limiter
	userAgent string
	cfg       ClientConfig

	// replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu         sync.Mutex
	credits    int
	hasCredits bool
}

// NewClient creates a 9kw client. No request is sent until the first call.
func NewClient(cfg ClientConfig) (*Client, error) {
	cfg.defaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key required: %w", ErrInvalidAPIKey)
	}

	profile := stealth.BuiltinProfiles[0]
	tr := cfg.Transport
	if tr == nil {
		opts := []stealth.ClientOption{
			stealth.WithProfile(profile.TLSProfile),
			stealth.WithHeaderOrder(apiHeaderOrder),
		}
		if cfg.Proxy != "" {
			opts = append(opts, stealth.WithProxy(cfg.Proxy))
			slog.Debug("9kw: using proxy", slog.String("proxy", stealth.MaskProxy(cfg.Proxy)))
		}
		bc, err := stealth.NewClient(opts...)
		if err != nil {
			return nil, fmt.Errorf("stealth client: %w", err)
		}
		tr = bc
	}

	return &Client{
		transport: tr,
		limiter:   ratelimit.NewLimiter(cfg.RateLimit),
		userAgent: profile.UserAgent,
		cfg:       cfg,
		sleep:     sleepCtx,
		now:       time.Now,
	}, nil
}

// CachedCredits returns the last known balance, if any.
func (c *Client) CachedCredits() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credits, c.hasCredits
}

func (c *Client) setCredits(n int) {
	c.mu.Lock()
	c.credits = n
	c.hasCredits = true
	c.mu.Unlock()
}

// recordAPICall calls the metrics hook if configured.
func (c *Client) recordAPICall(action string, success, rateLimited bool) {
	if c.cfg.MetricsHook != nil {
		c.cfg.MetricsHook(action, success, rateLimited)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
