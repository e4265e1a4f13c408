package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/studentacc/accommodation-booking/internal/config"
	"github.com/studentacc/accommodation-booking/internal/middleware"
	"github.com/studentacc/accommodation-booking/internal/model"
	"github.com/studentacc/accommodation-booking/internal/repository"
	"github.com/studentacc/accommodation-booking/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Sessions config.SessionConfig
	Users    *repository.UserRepo
	Store    *repository.SessionRepo
	Log      *logrus.Logger
	Now      func() time.Time
}

func NewAuthHandler(cfg config.Config, sc config.SessionConfig, u *repository.UserRepo, s *repository.SessionRepo, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Sessions: sc, Users: u, Store: s, Log: log, Now: time.Now}
}

// ----- DTOs -----

type registerReq struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authResp struct {
	User           userPart  `json:"user"`
	Access         tokenPart `json:"access"`
	SessionExpires time.Time `json:"session_expires"`
}

// Register creates a STUDENT account and logs it in straight away.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	if req.Password != req.PasswordConfirm {
		return badRequest(c, "passwords do not match")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	email := repository.NormalizeEmail(req.Email)
	uid, err := h.Users.Create(ctx, email, req.Password, model.RoleStudent, h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		case errors.Is(err, utils.ErrPasswordTooLong):
			return badRequest(c, err.Error())
		}
		return serverError(c, h.Log, err, "create user failed")
	}

	resp, err := h.issueSession(ctx, model.User{ID: uid, Email: email, Role: model.RoleStudent})
	if err != nil {
		return serverError(c, h.Log, err, "issue session failed")
	}
	h.Log.WithFields(logrus.Fields{"user_id": uid}).Info("user registered")
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and opens a new session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return serverError(c, h.Log, err, "query failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	}

	resp, err := h.issueSession(ctx, u)
	if err != nil {
		return serverError(c, h.Log, err, "issue session failed")
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the session the presented token belongs to.
func (h *AuthHandler) Logout(c echo.Context) error {
	sid, _ := c.Get(middleware.CtxSessionID).(string)
	if sid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Store.Revoke(ctx, sid); err != nil {
		return serverError(c, h.Log, err, "logout failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated user and the expiry of the current session.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sid, _ := c.Get(middleware.CtxSessionID).(string)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Store.Get(ctx, sid)
	if errors.Is(err, repository.ErrSessionNotFound) || (err == nil && !sess.Active(h.Now())) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired, please log in again"})
	}
	if err != nil {
		return serverError(c, h.Log, err, "load session failed")
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(c, "user")
		}
		return serverError(c, h.Log, err, "load user failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":            userPart{ID: u.ID, Email: u.Email, Role: u.Role},
		"session_expires": sess.ExpiresAt,
	})
}

// issueSession stores a session row and signs an access token bound to it.
func (h *AuthHandler) issueSession(ctx context.Context, u model.User) (authResp, error) {
	now := h.Now().UTC()
	sid := uuid.NewString()
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, sid,
		time.Duration(h.Cfg.AccessTTLMin)*time.Minute, now)
	if err != nil {
		return authResp{}, err
	}
	s := model.Session{
		ID:        sid,
		UserID:    u.ID,
		TokenHash: utils.HashToken(access.Token),
		ExpiresAt: now.Add(h.Sessions.TTL),
	}
	if err := h.Store.Create(ctx, s); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:           userPart{ID: u.ID, Email: u.Email, Role: u.Role},
		Access:         tokenPart{Token: access.Token, Expires: access.Exp},
		SessionExpires: s.ExpiresAt,
	}, nil
}
