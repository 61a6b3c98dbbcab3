package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 3, Window: time.Minute})
	now := time.Date(2025, 11, 3, 18, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, _, ok := rl.allow("1.2.3.4", now)
		require.True(t, ok, "request %d should be allowed", i+1)
	}
	_, _, ok := rl.allow("1.2.3.4", now)
	assert.False(t, ok, "fourth request should be rejected")

	// Other clients are tracked independently.
	_, _, ok = rl.allow("5.6.7.8", now)
	assert.True(t, ok)
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	now := time.Date(2025, 11, 3, 18, 0, 0, 0, time.UTC)

	_, _, ok := rl.allow("c", now)
	require.True(t, ok)
	_, _, ok = rl.allow("c", now)
	require.True(t, ok)
	_, _, ok = rl.allow("c", now)
	require.False(t, ok)

	// Two full windows later the budget is fresh.
	later := now.Add(2 * time.Minute)
	_, _, ok = rl.allow("c", later)
	assert.True(t, ok)
}

func TestRateLimiterEvict(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Date(2025, 11, 3, 18, 0, 0, 0, time.UTC)

	rl.allow("a", now)
	rl.allow("b", now.Add(90*time.Second))
	rl.evict(now.Add(2 * time.Minute))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.clients, "a")
	assert.Contains(t, rl.clients, "b")
}

func TestRateLimitMiddleware(t *testing.T) {
	mw := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/catalog", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	do()
	rec = do()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, rec.Body.String())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.3"}, "10.0.0.2:1234", "198.51.100.3"},
		{"remote addr", nil, "192.0.2.9:4567", "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
