package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/taskflow-api/internal/platform/ratelimit"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	t.Cleanup(limiter.Close)

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RateLimit(limiter, 2, time.Minute, nil)(ok)

	call := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	first := call("10.0.0.1:5000")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, call("10.0.0.1:5001").Code, "port is not part of the key")

	blocked := call("10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, call("10.0.0.2:5000").Code, "other clients are unaffected")
}

func TestRateLimit_Disabled(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	t.Cleanup(limiter.Close)
	handler := RateLimit(limiter, 0, time.Minute, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}
