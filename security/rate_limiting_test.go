package security

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoginEvent() (*core.RequestEvent, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/agent-login", nil)
	rec := httptest.NewRecorder()
	event := new(core.RequestEvent)
	event.Response = rec
	event.Request = req
	return event, rec
}

func passThrough(called *bool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		*called = true
		return e.JSON(http.StatusOK, map[string]string{"ok": "true"})
	}
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 2)

	// httptest requests come from 192.0.2.1.
	key := "ratelimit:login:192.0.2.1"
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)

	var called bool
	event, rec := newLoginEvent()
	require.NoError(t, limiter.LimitLogins(passThrough(&called))(event))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 2)

	mock.ExpectIncr("ratelimit:login:192.0.2.1").SetVal(3)

	var called bool
	event, rec := newLoginEvent()
	require.NoError(t, limiter.LimitLogins(passThrough(&called))(event))

	assert.False(t, called)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_FailsOpenOnRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 2)

	mock.ExpectIncr("ratelimit:login:192.0.2.1").SetErr(errors.New("redis down"))

	var called bool
	event, rec := newLoginEvent()
	require.NoError(t, limiter.LimitLogins(passThrough(&called))(event))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_UsesForwardedAddress(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 2)

	key := "ratelimit:login:203.0.113.9"
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)

	var called bool
	event, _ := newLoginEvent()
	event.Request.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	require.NoError(t, limiter.LimitLogins(passThrough(&called))(event))

	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}
