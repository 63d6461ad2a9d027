package middleware

import (
	"net/http"
	"net/http/httptest"
	"streambook/internal/auth"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRateLimiterPerAccount(t *testing.T) {
	limiter := NewRateLimiter(6, zap.NewNop()) // burst of 1
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(account string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{AccountID: account, Role: auth.RoleSubscriber}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("sub-1"))
	assert.Equal(t, http.StatusTooManyRequests, call("sub-1"))
	assert.Equal(t, http.StatusNoContent, call("sub-2"))
}
