package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/studentacc/accommodation-booking/internal/repository"
)

// SessionToucher renews a session.  Implemented by repository.SessionRepo.
type SessionToucher interface {
	Touch(ctx context.Context, id, tokenHash string, now, until time.Time) error
}

// SessionGuard must run after JWTAuth.  A signed token is not enough:
// its session row must still be live, and every request slides the
// session expiry ttl into the future.  A missing, revoked or expired
// session answers 401 so the client logs in again.
func SessionGuard(store SessionToucher, ttl time.Duration, log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid, _ := c.Get(CtxSessionID).(string)
			hash, _ := c.Get(CtxTokenHash).(string)
			if sid == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session"})
			}
			now := time.Now().UTC()
			err := store.Touch(c.Request().Context(), sid, hash, now, now.Add(ttl))
			if errors.Is(err, repository.ErrSessionNotFound) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired, please log in again"})
			}
			if err != nil {
				log.WithError(err).WithField("sid", sid).Error("session renewal failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify session"})
			}
			return next(c)
		}
	}
}
