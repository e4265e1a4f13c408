package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/studentacc/accommodation-booking/internal/middleware"
	"github.com/studentacc/accommodation-booking/internal/service"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct{ v *validator.Validate }

func NewValidator() *Validator { return &Validator{v: validator.New()} }

func (cv *Validator) Validate(i interface{}) error { return cv.v.Struct(i) }

// bindValid binds the request body into dst and validates it.  The
// returned message is suitable for a 400 response.
func bindValid(c echo.Context, dst interface{}) (string, bool) {
	if err := c.Bind(dst); err != nil {
		return "invalid request body", false
	}
	if err := c.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return strings.Join(msgs, "; "), false
		}
		return err.Error(), false
	}
	return "", true
}

// getUserID returns the authenticated user id stored by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errors.New("invalid user_id in context")
	}
	return id, nil
}

func identity(c echo.Context) (service.Identity, error) {
	id, err := getUserID(c)
	if err != nil {
		return service.Identity{}, err
	}
	email, _ := c.Get(middleware.CtxEmail).(string)
	role, _ := c.Get(middleware.CtxRole).(string)
	return service.Identity{UserID: id, Email: email, Role: role}, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func notFound(c echo.Context, what string) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": what + " not found"})
}

// serverError logs err and answers 500 without leaking it.
func serverError(c echo.Context, log *logrus.Logger, err error, msg string) error {
	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request().Method,
		"route":  c.Path(),
	}).Error(msg)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

// serviceError maps the booking service's errors onto status codes.
func serviceError(c echo.Context, log *logrus.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNoRoomAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	}
	return serverError(c, log, err, "internal error")
}
