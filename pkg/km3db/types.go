package km3db

import (
	"errors"
	"log/slog"
)

// Source identifies a credential source consulted during session
// resolution.
type Source string

const (
	// SourceWhitelist returns the fixed cookie of a pre-trusted network.
	SourceWhitelist Source = "whitelist"
	// SourceEnv logs in with the KM3NET_DB_USERNAME/KM3NET_DB_PASSWORD pair.
	SourceEnv Source = "env"
	// SourceCookieFile reads the persisted cookie file.
	SourceCookieFile Source = "cookiefile"
	// SourcePrompt asks for credentials interactively.
	SourcePrompt Source = "prompt"
)

// DefaultPrecedence is the order credential sources are consulted in when
// not overridden via WithPrecedence.
var DefaultPrecedence = []Source{SourceWhitelist, SourceEnv, SourceCookieFile, SourcePrompt}

// ParseSource converts a configuration string into a Source.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceWhitelist, SourceEnv, SourceCookieFile, SourcePrompt:
		return Source(s), nil
	}
	return "", errors.New("km3db: unknown credential source " + s)
}

var (
	// ErrNoSession is returned when no credential source yields a cookie.
	ErrNoSession = errors.New("km3db: no session cookie available")
	// ErrBadCredentials signals a login whose response failed the session
	// cookie pattern check.
	ErrBadCredentials = errors.New("km3db: wrong username or password")
)

// LevelCritical marks authentication failures that leave the client
// unusable; it sorts above slog.LevelError.
const LevelCritical = slog.LevelError + 4
