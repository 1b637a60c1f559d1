package httpx

import (
	"fmt"
	"net/http"
)

// HTTPError represents a non-2xx HTTP response returned by the remote service.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
	Header     http.Header
	URL        string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("http error: status=%d url=%s body=%s", e.StatusCode, e.URL, string(e.Body))
}

// AuthRelated reports whether the status code suggests a missing or expired
// session rather than a server-side fault.
func (e *HTTPError) AuthRelated() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
