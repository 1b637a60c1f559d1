package km3db_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km3net/km3db-go/pkg/km3db"
)

func TestGitlabCheckMatchesExternalIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "131.188.161.155\n")
	}))
	defer srv.Close()

	h := km3db.NewIdentHostChecker(srv.URL, srv.Client())

	ok, err := h.OnWhitelistedHost(context.Background(), "gitlab")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGitlabCheckRejectsOtherIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "10.0.0.1")
	}))
	defer srv.Close()

	h := km3db.NewIdentHostChecker(srv.URL, srv.Client())

	ok, err := h.OnWhitelistedHost(context.Background(), "gitlab")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGitlabCheckPropagatesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately unreachable

	h := km3db.NewIdentHostChecker(srv.URL, &http.Client{})

	_, err := h.OnWhitelistedHost(context.Background(), "gitlab")
	assert.Error(t, err)
}

func TestUnknownNetworkNeverMatches(t *testing.T) {
	h := km3db.NewIdentHostChecker("", nil)

	ok, err := h.OnWhitelistedHost(context.Background(), "atlantis")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFixedCookiesMatchSessionPattern(t *testing.T) {
	for network, cookie := range km3db.FixedSessionCookies() {
		assert.True(t, km3db.ValidSessionID(cookie), network)
	}
}

func TestWhitelistNetworksHaveFixedCookies(t *testing.T) {
	for _, network := range km3db.WhitelistNetworks {
		_, ok := km3db.FixedSessionCookies()[network]
		assert.True(t, ok, network)
	}
}
