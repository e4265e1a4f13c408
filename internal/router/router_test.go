package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentacc/accommodation-booking/internal/handler"
	"github.com/studentacc/accommodation-booking/internal/middleware"
	"github.com/studentacc/accommodation-booking/internal/model"
	"github.com/studentacc/accommodation-booking/internal/service"
	"github.com/studentacc/accommodation-booking/internal/utils"
)

const secret = "router-secret"

type okSessions struct{ calls int }

func (s *okSessions) Touch(ctx context.Context, id, tokenHash string, now, until time.Time) error {
	s.calls++
	return nil
}

type emptyCatalog struct{}

func (emptyCatalog) ListRooms(ctx context.Context) ([]service.RoomView, error) { return nil, nil }

func (emptyCatalog) GetAccommodation(ctx context.Context, id uint64) (*service.AccommodationDetail, error) {
	return nil, service.ErrNotFound
}

func (emptyCatalog) Search(ctx context.Context, p service.SearchParams) (*service.SearchPage, error) {
	return &service.SearchPage{Page: 1, PageSize: 20}, nil
}

func setup(t *testing.T) (*echo.Echo, *okSessions) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	sessions := &okSessions{}
	chain := []echo.MiddlewareFunc{
		middleware.JWTAuth(secret),
		middleware.SessionGuard(sessions, 10*time.Minute, log),
	}
	catalog := handler.NewCatalogHandler(emptyCatalog{}, log)

	e := echo.New()
	e.Validator = handler.NewValidator()
	RegisterRoutes(e)
	RegisterAuth(e, &handler.AuthHandler{Log: log})
	RegisterPublic(e, catalog, nil)
	RegisterStudent(e, Student{
		Auth:     &handler.AuthHandler{Log: log},
		Catalog:  catalog,
		Bookings: handler.NewBookingHandler(nil, log),
		Session:  chain,
	})
	RegisterAdmin(e, &handler.AdminHandler{Log: log}, chain...)
	return e, sessions
}

func get(e *echo.Echo, path, role string, t *testing.T) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		tok, err := utils.NewAccessToken(secret, 3, "kai@uni.ac.uk", role, "sid-3", time.Hour, time.Now())
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	e, _ := setup(t)
	for _, p := range []string{"/healthz", "/health/"} {
		rec := get(e, p, "", t)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	}
}

func TestPublicSearchNeedsNoToken(t *testing.T) {
	e, _ := setup(t)
	assert.Equal(t, http.StatusOK, get(e, "/v1/search/accommodations?city=Leeds", "", t).Code)
}

func TestStudentRoutesRequireSession(t *testing.T) {
	e, sessions := setup(t)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/v1/rooms", "", t).Code)

	rec := get(e, "/v1/rooms", model.RoleStudent, t)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, sessions.calls)

	assert.Equal(t, http.StatusOK, get(e, "/v1/rooms", model.RoleAdmin, t).Code)
	assert.Equal(t, http.StatusForbidden, get(e, "/v1/rooms", "LANDLORD", t).Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	e, _ := setup(t)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/v1/admin/owners", "", t).Code)
	assert.Equal(t, http.StatusForbidden, get(e, "/v1/admin/owners", model.RoleStudent, t).Code)
}

func TestRouteTable(t *testing.T) {
	e, _ := setup(t)
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"POST /v1/auth/logout",
		"GET /v1/me",
		"POST /v1/accommodations/:id/book",
		"GET /v1/my-bookings",
		"DELETE /v1/my-bookings/:id",
		"POST /v1/admin/accommodations/:id/image",
		"POST /v1/admin/accommodations/:id/amenities/:amenityID",
		"DELETE /v1/admin/discounts/:id",
	} {
		assert.True(t, have[want], want)
	}
}
