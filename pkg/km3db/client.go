package km3db

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/km3net/km3db-go/internal/httpx"
)

const (
	// DefaultURL is the production database web API.
	DefaultURL = "https://km3netdbweb.in2p3.fr"

	cookieFilename = ".km3netdb_cookie"
	envUsername    = "KM3NET_DB_USERNAME"
	envPassword    = "KM3NET_DB_PASSWORD"
)

// Option configures a Client.
type Option func(*Client)

// WithURL overrides the database base URL.
func WithURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.url = u
		}
	}
}

// WithLogger assigns the logger used for degradation and auth messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCookiePath overrides the persisted cookie file location.
func WithCookiePath(path string) Option {
	return func(c *Client) {
		c.cookiePath = path
	}
}

// WithCredentials supplies an explicit username/password pair, taking the
// place of the environment variables during session resolution.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithPrecedence overrides the order credential sources are consulted in.
func WithPrecedence(sources ...Source) Option {
	return func(c *Client) {
		if len(sources) > 0 {
			c.precedence = sources
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client. The caller becomes
// responsible for the TLS trust model.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPromptFunc replaces the interactive credential prompt.
func WithPromptFunc(f PromptFunc) Option {
	return func(c *Client) {
		if f != nil {
			c.prompt = f
		}
	}
}

// WithHostChecker replaces the whitelisted-host detection.
func WithHostChecker(h HostChecker) Option {
	return func(c *Client) {
		if h != nil {
			c.hosts = h
		}
	}
}

// Client is a session-holding gateway to the database web API. It is a
// single-owner, sequential client; the only guarded state is the
// resolve-once session cookie.
type Client struct {
	url        string
	logger     *slog.Logger
	cookiePath string
	precedence []Source
	username   string
	password   string
	prompt     PromptFunc
	hosts      HostChecker
	httpClient *http.Client
	timeout    time.Duration

	http *httpx.Client

	mu            sync.Mutex
	sessionCookie string
}

// New constructs a Client. Certificate verification is disabled on the
// default transport: the production host serves a certificate the stock
// trust stores reject. Supply WithHTTPClient to restore verification.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		url:        DefaultURL,
		logger:     slog.Default(),
		precedence: DefaultPrecedence,
		prompt:     TerminalPrompt,
		timeout:    30 * time.Second,
	}
	if home, err := os.UserHomeDir(); err == nil {
		c.cookiePath = filepath.Join(home, cookieFilename)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.hosts == nil {
		c.hosts = NewHostChecker()
	}

	httpxOpts := []httpx.Option{
		httpx.WithInsecureTLS(true),
		httpx.WithTimeout(c.timeout),
	}
	if c.httpClient != nil {
		httpxOpts = append(httpxOpts, httpx.WithHTTPClient(c.httpClient))
	}

	hc, err := httpx.NewClient(c.url, httpxOpts...)
	if err != nil {
		return nil, err
	}
	c.http = hc
	return c, nil
}

// URL returns the configured base URL.
func (c *Client) URL() string {
	return c.url
}

// Get fetches the body of {base}/{path} as UTF-8 text with the session
// cookie attached. Failures degrade: an HTTP or transport error is logged
// and yields an empty string, a truncated read is logged and yields the
// partial content.
func (c *Client) Get(ctx context.Context, path string) string {
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	target := c.http.URL(path)

	req := &httpx.Request{Method: http.MethodGet, Path: path}
	if cookie, err := c.SessionCookie(ctx); err == nil {
		req.Header = http.Header{"Cookie": {"sid=" + cookie}}
	} else {
		c.logger.Warn("proceeding without a session cookie", "error", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.logger.Error("HTTP error, your session may be expired",
			"url", target, "error", err)
		return ""
	}

	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		c.logger.Error("incomplete data received from the database",
			"url", target, "bytes", len(data), "error", err)
	}
	c.logger.Debug("received data", "url", target, "bytes", len(data))
	return string(data)
}
