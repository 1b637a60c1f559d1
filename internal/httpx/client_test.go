package httpx_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km3net/km3db-go/internal/httpx"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := httpx.NewClient("")
	assert.Error(t, err)
}

func TestDoReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streamds", r.URL.Path)
		io.WriteString(w, "STREAM\tDESCRIPTION\n")
	}))
	defer srv.Close()

	c, err := httpx.NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), &httpx.Request{Method: http.MethodGet, Path: "streamds"})
	require.NoError(t, err)

	body, err := httpx.ReadAllAndClose(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "STREAM\tDESCRIPTION\n", string(body))
}

func TestDoClassifiesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := httpx.NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Do(context.Background(), &httpx.Request{Method: http.MethodGet, Path: "streamds"})
	require.Error(t, err)

	var httpErr *httpx.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Contains(t, string(httpErr.Body), "session expired")
	assert.Contains(t, httpErr.URL, "/streamds")
	assert.True(t, httpErr.AuthRelated())
}

func TestReadAllAndCloseKeepsPartialBytes(t *testing.T) {
	// The handler promises more bytes than it writes, so the client sees
	// a truncated body.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		io.WriteString(w, "RUN\tDETID\n1\t49\n")
	}))
	defer srv.Close()

	c, err := httpx.NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), &httpx.Request{Method: http.MethodGet, Path: "streamds"})
	require.NoError(t, err)

	body, err := httpx.ReadAllAndClose(resp.Body)
	require.Error(t, err)
	assert.Equal(t, "RUN\tDETID\n1\t49\n", string(body))
}

func TestDefaultHeadersAreAttached(t *testing.T) {
	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
	}))
	defer srv.Close()

	c, err := httpx.NewClient(srv.URL, httpx.WithHeaders(http.Header{"Cookie": {"sid=abc"}}))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), &httpx.Request{Method: http.MethodGet, Path: "x"})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "sid=abc", gotCookie)

	c.SetHeader("Cookie", "sid=def")
	resp, err = c.Do(context.Background(), &httpx.Request{Method: http.MethodGet, Path: "x"})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "sid=def", gotCookie)
}

func TestPathKeepsQueryString(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
	}))
	defer srv.Close()

	c, err := httpx.NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), &httpx.Request{
		Method: http.MethodGet,
		Path:   "streamds/runs.txt?detid=49&minrun=1",
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "detid=49&minrun=1", gotQuery)
}

func TestURLJoinsBase(t *testing.T) {
	c, err := httpx.NewClient("https://example.org")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/home.htm", c.URL("home.htm"))
}
