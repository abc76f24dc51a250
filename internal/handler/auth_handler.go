package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"vetclinic-api/internal/auth"
	mw "vetclinic-api/internal/middleware"
	"vetclinic-api/internal/model"
)

const refreshTokenTTL = 30 * 24 * time.Hour

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type tokenResponse struct {
	UserID       string   `json:"userId"`
	FullName     string   `json:"fullName,omitempty"`
	Roles        []string `json:"roles"`
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, password and fullName required")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "password too short")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Phone:        req.Phone,
	}

	// everyone signs up as a client; staff roles are granted by an admin
	if err := h.store.CreateUser(c.Request().Context(), u, model.RoleClient); err != nil {
		// unique violation = dup email, but don't reveal that
		return echo.NewHTTPError(http.StatusConflict, "registration failed")
	}

	return h.issueTokens(c, http.StatusCreated, u.ID, u.FullName, []string{model.RoleClient})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password required")
	}

	u, err := h.store.UserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	return h.issueTokens(c, http.StatusOK, u.ID, u.FullName, u.Roles)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refreshToken required")
	}
	ctx := c.Request().Context()

	rt, err := h.store.RefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if rt.Revoked {
		// a revoked token coming back means it leaked; kill the whole session family
		_ = h.store.RevokeAllRefreshTokens(ctx, rt.UserID)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if time.Now().After(rt.ExpiresAt) {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token expired")
	}

	u, err := h.store.UserByID(ctx, rt.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	newID := uuid.New().String()
	if err := h.store.RotateRefreshToken(ctx, rt.ID, newID, u.ID, hash, time.Now().Add(refreshTokenTTL)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	tok, err := auth.MakeToken(u.ID, u.Roles, h.secret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, tokenResponse{
		UserID: u.ID, FullName: u.FullName, Roles: u.Roles,
		Token: tok, RefreshToken: raw,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.store.RevokeAllRefreshTokens(c.Request().Context(), mw.UserID(c)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) issueTokens(c echo.Context, status int, userID, fullName string, roles []string) error {
	tok, err := auth.MakeToken(userID, roles, h.secret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if _, err := h.store.CreateRefreshToken(c.Request().Context(), userID, hash, time.Now().Add(refreshTokenTTL)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(status, tokenResponse{
		UserID: userID, FullName: fullName, Roles: roles,
		Token: tok, RefreshToken: raw,
	})
}
