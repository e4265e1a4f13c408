package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/studentacc/accommodation-booking/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication.
// Both health paths answer a plain "OK".
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/health/", handler.Health)
}

// RegisterAuth registers register and login under /v1/auth.  Logout and
// /v1/me need a session and are registered with the student routes.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
}

// RegisterPublic registers the unauthenticated search.  cache may be nil.
func RegisterPublic(e *echo.Echo, c *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if cache != nil {
		mw = append(mw, cache)
	}
	e.GET("/v1/search/accommodations", c.Search, mw...)
}
