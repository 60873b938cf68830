package ninekw

import (
	"os"
	"time"

	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// Service limits published by 9kw.eu.
const (
	MinPriority   = 1
	MaxPriority   = 10
	MinMaxTimeout = 60
	MaxMaxTimeout = 3999

	// MinCreditsPerSolve is the price of one solve without priority surcharge.
	MinCreditsPerSolve = 10
)

// DefaultRateLimit admits 60 calls per minute for each action, well above
// one result poll per PollInterval.
var DefaultRateLimit = ratelimit.Config{
	RequestsPerWindow: 60,
	WindowDuration:    time.Minute,
}

// ClientConfig holds all configuration for the 9kw client.
type ClientConfig struct {
	// APIKey is the 9kw.eu API key.
	APIKey string

	// Endpoint overrides the service URL. Default: https://www.9kw.eu/index.cgi
	Endpoint string

	// Source is the source tag sent with every request.
	Source string

	// Proxy is an explicit proxy URL (http://, socks5://).
	Proxy string

	// EnvProxy reads the proxy from http_proxy / HTTP_PROXY when Proxy is empty.
	EnvProxy bool

	// Transport replaces the go-stealth browser client. Mostly for tests.
	Transport Transport

	// DefaultPriority is used when Submit gets no WithPriority option.
	DefaultPriority int

	// DefaultMaxTimeout is used when Submit gets no WithMaxTimeout option (seconds).
	DefaultMaxTimeout int

	// MinCredits is the balance below which Submit fails without a remote call.
	MinCredits int

	// PollInterval is the pause between two result polls.
	PollInterval time.Duration

	// RateLimit configures per-action request throttling. Default: DefaultRateLimit.
	RateLimit ratelimit.Config

	// MetricsHook is called on each API request for external metrics collection.
	// action is the 9kw action name, success and rateLimited indicate the outcome.
	MetricsHook func(action string, success, rateLimited bool)
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *ClientConfig) defaults() {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Source == "" {
		cfg.Source = apiSource
	}
	if cfg.Proxy == "" && cfg.EnvProxy {
		cfg.Proxy = proxyFromEnv()
	}
	if cfg.DefaultPriority == 0 {
		cfg.DefaultPriority = 5
	}
	if cfg.DefaultMaxTimeout == 0 {
		cfg.DefaultMaxTimeout = MinMaxTimeout
	}
	if cfg.MinCredits == 0 {
		cfg.MinCredits = MinCreditsPerSolve
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.RateLimit.RequestsPerWindow == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateLimit.WindowDuration <= 0 {
		cfg.RateLimit.WindowDuration = DefaultRateLimit.WindowDuration
	}
}

// proxyFromEnv returns the first proxy found in the usual environment variables.
func proxyFromEnv() string {
	for _, k := range []string{"http_proxy", "HTTP_PROXY", "https_proxy", "HTTPS_PROXY"} {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
