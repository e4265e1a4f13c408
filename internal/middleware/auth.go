package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/studentacc/accommodation-booking/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxEmail     = "email"
	CtxSessionID = "sid"
	CtxTokenHash = "token_hash"
)

// JWTAuth validates a Bearer access token and injects the caller's id,
// role, email and session id into the request context.  The secret must
// match the one used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			uid, err := claims.UserID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set(CtxUserID, uid)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxEmail, claims.Email)
			c.Set(CtxSessionID, claims.SessionID)
			c.Set(CtxTokenHash, utils.HashToken(raw))
			return next(c)
		}
	}
}
