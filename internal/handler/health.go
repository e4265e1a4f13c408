package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness probe used by load balancers.  It answers a
// plain "OK" without touching any dependency.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
