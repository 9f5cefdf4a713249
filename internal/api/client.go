package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rickgao/overlay-monitor/internal/version"
)

// DefaultBaseURL is where cmd/overlay listens unless display.listen says
// otherwise.
const DefaultBaseURL = "http://localhost:8090"

// Client sends control requests to one overlay display server. It is safe
// for concurrent use.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// NewClient returns a client for the display server at baseURL (empty means
// DefaultBaseURL). An empty token sends no Authorization header, which the
// server accepts only when control auth is off.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		token:        token,
		userAgent:    "overlayctl/" + version.Version,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout bounds each HTTP round trip. A control call that waits on a
// busy event loop can take up to the server's own 5s limit.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetries sets how many times a 5xx or 429 answer is retried and the
// first backoff, which doubles per attempt. Zero retries makes every call
// a single attempt.
func WithRetries(n int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
		c.retryBackoff = backoff
	}
}

// WithLogger logs retries to logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient swaps in hc, e.g. one with a custom transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent overrides the User-Agent header, which the display server
// logs with every control operation.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}
