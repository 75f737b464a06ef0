package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_RejectsOverBurstPerClient(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	handler := limiter.Middleware(okHandler())

	call := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/transfer", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5002"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2:5000"), "other clients keep their own budget")
}

func TestRateLimiter_CleanupForgetsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	require.True(t, limiter.Allow("a"))
	require.False(t, limiter.Allow("a"))

	current = current.Add(limiter.idleTTL + time.Minute)
	limiter.Cleanup()
	assert.Empty(t, limiter.limiters)
}

func TestRateLimiter_IgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	handler := limiter.Middleware(okHandler())

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/transfer", nil)
		req.RemoteAddr = "198.51.100.9:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)
}

func TestRateLimiter_RejectionUsesEnvelope(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	handler := limiter.Middleware(okHandler())

	var rr *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/transfer", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}

	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body commons.Response[struct{}]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "too many requests", body.Message)
}

func TestClientKey(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	cases := []struct {
		name    string
		trusted []netip.Prefix
		remote  string
		xff     string
		want    string
	}{
		{name: "remote address", remote: "192.0.2.10:1234", want: "192.0.2.10"},
		{name: "forwarded for ignored without trusted proxies", remote: "192.0.2.10:1234", xff: "203.0.113.5", want: "192.0.2.10"},
		{name: "untrusted peer cannot spoof", trusted: proxies, remote: "192.0.2.10:1234", xff: "203.0.113.5", want: "192.0.2.10"},
		{name: "trusted proxy forwards client", trusted: proxies, remote: "10.0.0.2:1234", xff: "203.0.113.5", want: "203.0.113.5"},
		{name: "spoofed leftmost hop skipped", trusted: proxies, remote: "10.0.0.2:1234", xff: "1.2.3.4, 203.0.113.5, 10.0.0.3", want: "203.0.113.5"},
		{name: "malformed hop stops the walk", trusted: proxies, remote: "10.0.0.2:1234", xff: "203.0.113.5, junk", want: "10.0.0.2"},
		{name: "trusted proxy without header", trusted: proxies, remote: "10.0.0.2:1234", want: "10.0.0.2"},
		{name: "ipv6 peer", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "opaque remote", remote: "pipe", want: "pipe"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			limiter := NewRateLimiter(1, 1, WithTrustedProxies(tc.trusted))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			assert.Equal(t, tc.want, limiter.clientKey(req))
		})
	}
}
