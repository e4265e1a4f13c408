package middleware

import "github.com/labstack/echo/v4"

// NoCache forbids clients and proxies from storing responses.  Pages
// contain per-user booking state, so a shared cache or the browser's back
// button must never replay them.
func NoCache() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
			h.Set("Vary", "Cookie, Authorization")
			return next(c)
		}
	}
}
