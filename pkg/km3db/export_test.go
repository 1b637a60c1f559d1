package km3db

import "net/http"

// NewIdentHostChecker builds the default host checker against an
// alternative IP echo service, so tests can fake ident.me.
func NewIdentHostChecker(identURL string, client *http.Client) HostChecker {
	return &hostChecker{identURL: identURL, client: client}
}

// FixedSessionCookies exposes the whitelist cookies for assertions.
func FixedSessionCookies() map[string]string {
	return sessionCookies
}
