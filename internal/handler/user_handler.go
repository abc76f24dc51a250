package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	mw "vetclinic-api/internal/middleware"
	"vetclinic-api/internal/model"
	"vetclinic-api/internal/store"
)

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.store.ListUsers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, users)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) AssignRole(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	switch req.Role {
	case model.RoleAdmin, model.RoleVet, model.RoleClient:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}
	if err := h.store.AssignRole(c.Request().Context(), c.Param("id"), req.Role); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteUser removes the account and revokes its sessions. Admins cannot
// delete themselves.
func (h *Handler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	if id == mw.UserID(c) {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot delete own account")
	}
	err := h.store.DeleteUser(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "user deleted"})
}

type linkGoogleRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirectUri"`
}

// LinkGoogle exchanges an authorization code and stores the refresh token on
// the caller's profile. Google only returns a refresh token when the consent
// prompt was shown, so its absence is reported rather than treated as an
// error.
func (h *Handler) LinkGoogle(c echo.Context) error {
	var req linkGoogleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Code == "" || req.RedirectURI == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code and redirectUri required")
	}

	tok, err := h.google.ExchangeCode(c.Request().Context(), req.Code, req.RedirectURI)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "could not exchange authorization code")
	}

	if tok.RefreshToken == "" {
		h.log.Warn().Str("user_id", mw.UserID(c)).Msg("code exchange returned no refresh token")
		return c.JSON(http.StatusOK, map[string]any{
			"linked":  false,
			"message": "no refresh token returned; re-authorize with consent prompt",
		})
	}

	if err := h.store.SetGoogleRefreshToken(c.Request().Context(), mw.UserID(c), tok.RefreshToken); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not save token")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"linked":  true,
		"message": "Google Calendar linked",
	})
}
