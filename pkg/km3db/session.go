package km3db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/km3net/km3db-go/internal/httpx"
)

// Fixed cookies granted to machines on pre-trusted networks. A whitelist
// hit short-circuits the login flow entirely.
var sessionCookies = map[string]string{
	"lyon":    "_kmcprod_134.158_lyo7783844001343100343mcprod1223user",
	"jupyter": "_jupyter-km3net_131.188.161.143_d9fe89a1568a49a5ac03bdf15d93d799",
	"gitlab":  "_gitlab-km3net_131.188.161.155_f835d56ca6d946efb38324d59e040761",
}

// Session IDs are segments of lowercase alphanumerics/hyphens around a
// dotted IP-like group. Prefix match, like the upstream check.
var sessionIDPattern = regexp.MustCompile(`^_[a-z0-9-]+_(\d{1,3}\.){1,3}\d{1,3}_[a-z0-9]+`)

// ValidSessionID reports whether a cookie matches the session ID pattern.
func ValidSessionID(cookie string) bool {
	return sessionIDPattern.MatchString(cookie)
}

// SessionCookie resolves the session cookie, consulting the configured
// credential sources in precedence order. The first valid cookie is cached
// for the lifetime of the Client; failed resolutions are not cached, so a
// later call starts over.
func (c *Client) SessionCookie(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionCookie != "" {
		return c.sessionCookie, nil
	}

	cookie, err := c.resolveSessionCookie(ctx)
	if err != nil {
		return "", err
	}
	c.sessionCookie = cookie
	return cookie, nil
}

func (c *Client) resolveSessionCookie(ctx context.Context) (string, error) {
	for _, src := range c.precedence {
		switch src {
		case SourceWhitelist:
			for _, network := range WhitelistNetworks {
				ok, err := c.hosts.OnWhitelistedHost(ctx, network)
				if err != nil {
					return "", fmt.Errorf("km3db: whitelist check for %s: %w", network, err)
				}
				if ok {
					c.logger.Debug("using fixed session cookie", "network", network)
					return sessionCookies[network], nil
				}
			}
		case SourceEnv:
			username, password := c.username, c.password
			if username == "" && password == "" {
				username = os.Getenv(envUsername)
				password = os.Getenv(envPassword)
			}
			if username == "" || password == "" {
				continue
			}
			return c.login(ctx, username, password)
		case SourceCookieFile:
			cookie, ok := c.readCookieFile()
			if !ok {
				continue
			}
			return cookie, nil
		case SourcePrompt:
			username, password, err := c.prompt()
			if err != nil {
				return "", fmt.Errorf("km3db: credential prompt: %w", err)
			}
			return c.login(ctx, username, password)
		}
	}
	return "", ErrNoSession
}

// readCookieFile returns the last tab-separated field of the persisted
// cookie file. The file is read-only input; nothing in the login flow
// writes it back.
func (c *Client) readCookieFile() (string, bool) {
	if c.cookiePath == "" {
		return "", false
	}
	content, err := os.ReadFile(c.cookiePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("could not read cookie file", "path", c.cookiePath, "error", err)
		}
		return "", false
	}
	fields := strings.Split(string(content), "\t")
	cookie := strings.TrimSpace(fields[len(fields)-1])
	if cookie == "" {
		return "", false
	}
	return cookie, true
}

// login performs the session request and extracts the cookie following the
// last "sid=" marker in the response body.
func (c *Client) login(ctx context.Context, username, password string) (string, error) {
	path := fmt.Sprintf("home.htm?usr=%s&pwd=%s&persist=y", username, password)
	resp, err := c.http.Do(ctx, &httpx.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return "", fmt.Errorf("km3db: login request: %w", err)
	}

	body, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return "", fmt.Errorf("km3db: read login response: %w", err)
	}

	cookie := string(body)
	if i := strings.LastIndex(cookie, "sid="); i >= 0 {
		cookie = cookie[i+len("sid="):]
	}
	cookie = strings.TrimSpace(cookie)

	if !ValidSessionID(cookie) {
		c.logger.Log(ctx, LevelCritical, "wrong username or password")
		return "", ErrBadCredentials
	}
	return cookie, nil
}
