package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentacc/accommodation-booking/internal/config"
	"github.com/studentacc/accommodation-booking/internal/repository"
	"github.com/studentacc/accommodation-booking/internal/utils"
)

const secret = "test-secret"

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, role, sid string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, 11, "kim@uni.ac.uk", role, sid, time.Hour, time.Now())
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

type fakeSessions struct {
	err   error
	calls int
	sid   string
	until time.Time
}

func (f *fakeSessions) Touch(ctx context.Context, id, tokenHash string, now, until time.Time) error {
	f.calls++
	f.sid = id
	f.until = until
	return f.err
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, _ := UserID(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id, "role": c.Get(CtxRole), "sid": c.Get(CtxSessionID)})
	}, JWTAuth(secret))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := serve(e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, "STUDENT", "sid-1"))
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":11,"role":"STUDENT","sid":"sid-1"}`, rec.Body.String())
}

func TestSessionGuard(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"live session renewed", nil, http.StatusOK},
		{"expired session", repository.ErrSessionNotFound, http.StatusUnauthorized},
		{"store failure", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeSessions{err: tc.err}
			e := echo.New()
			e.GET("/x", ok, JWTAuth(secret), SessionGuard(store, 10*time.Minute, quietLogger()))

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Authorization", bearer(t, "STUDENT", "sid-1"))
			before := time.Now()
			rec := serve(e, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, 1, store.calls)
			assert.Equal(t, "sid-1", store.sid)
			assert.True(t, store.until.After(before.Add(9*time.Minute)))
		})
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", ok, JWTAuth(secret), RequireRole("ADMIN"))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, "STUDENT", "sid-1"))
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, "ADMIN", "sid-1"))
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestNoCacheHeaders(t *testing.T) {
	e := echo.New()
	e.Use(NoCache())
	e.GET("/", ok)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-cache, no-store, must-revalidate, max-age=0", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))
	assert.Equal(t, "Cookie, Authorization", rec.Header().Get("Vary"))

	// error responses carry the headers too
	rec = serve(e, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("Expires"))
}

func TestRedisBackedMiddlewaresPassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	e.GET("/search", ok, NewRedisCache(config.CacheConfig{Enabled: true}, nil, quietLogger()))
	e.POST("/book", ok, NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, quietLogger()))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodPost, "/book", nil)).Code)
	}
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/search", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCacheKeyNormalisesQuery(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "p"}
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/search/accommodations")
		return cacheKey(cfg, c)
	}
	a := key("/v1/search/accommodations?city=leeds&q=house")
	assert.Equal(t, a, key("/v1/search/accommodations?q=house&city=leeds"))
	assert.NotEqual(t, a, key("/v1/search/accommodations?q=flat&city=leeds"))
	assert.True(t, strings.HasPrefix(a, "p:"))
}

func TestCaptureWriterStopsAtLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("def"))
	assert.True(t, cw.overflow)
	assert.Zero(t, cw.buf.Len())
	assert.Equal(t, "abcdef", rec.Body.String())
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/accommodations/7/book", nil)
	req.Header.Set("X-Real-IP", "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/accommodations/:id/book")

	assert.Equal(t, "rl:user:anon:route:POST /v1/accommodations/:id/book",
		rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}, c))

	c.Set(CtxUserID, uint64(11))
	assert.Equal(t, "rl:user:11:route:POST /v1/accommodations/:id/book",
		rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}, c))
	assert.Equal(t, "rl:ip:10.0.0.1",
		rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
}
