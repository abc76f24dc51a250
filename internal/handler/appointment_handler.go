package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	mw "vetclinic-api/internal/middleware"
	"vetclinic-api/internal/model"
	"vetclinic-api/internal/store"
)

type createAppointmentRequest struct {
	PetID        string     `json:"petId"`
	Type         string     `json:"type"`
	Reason       string     `json:"reason"`
	ScheduledFor *time.Time `json:"scheduledFor"`
}

// CreateAppointment registers a client's request. It starts out pendiente; a
// vet later confirms it with the agreed time.
func (h *Handler) CreateAppointment(c echo.Context) error {
	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.PetID == "" || req.Type == "" || req.Reason == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "petId, type and reason required")
	}
	ctx := c.Request().Context()
	clientID := mw.UserID(c)

	pet, err := h.store.PetByID(ctx, req.PetID)
	if err != nil || pet.OwnerID != clientID {
		// hide existence of other clients' pets
		return echo.NewHTTPError(http.StatusNotFound, "pet not found")
	}

	a := &model.Appointment{
		ID:           uuid.New().String(),
		ClientID:     clientID,
		PetID:        req.PetID,
		Type:         req.Type,
		Reason:       req.Reason,
		Status:       model.StatusPendiente,
		ScheduledFor: req.ScheduledFor,
	}
	if err := h.store.CreateAppointment(ctx, a); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	claims := mw.ClaimsFrom(c)

	switch {
	case claims.HasRole(model.RoleAdmin):
		apts, err := h.store.ListAllAppointments(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusOK, apts)
	case claims.HasRole(model.RoleVet):
		var from *time.Time
		if raw := c.QueryParam("from"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid from")
			}
			from = &t
		}
		apts, err := h.store.ListOpenAppointments(ctx, from)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusOK, apts)
	default:
		apts, err := h.store.ListAppointmentsByClient(ctx, claims.UserID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusOK, apts)
	}
}

func (h *Handler) GetAppointment(c echo.Context) error {
	apt, err := h.store.AppointmentByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	claims := mw.ClaimsFrom(c)
	// ownership — clients see only their own; return 404 not 403 to hide existence
	if !claims.HasRole(model.RoleVet) && !claims.HasRole(model.RoleAdmin) && apt.ClientID != claims.UserID {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return c.JSON(http.StatusOK, apt)
}

type confirmRequest struct {
	ScheduledFor time.Time `json:"scheduledFor"`
}

func (h *Handler) ConfirmAppointment(c echo.Context) error {
	var req confirmRequest
	if err := c.Bind(&req); err != nil || req.ScheduledFor.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "scheduledFor required")
	}
	if req.ScheduledFor.Before(time.Now()) {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot schedule in the past")
	}

	err := h.store.ConfirmAppointment(c.Request().Context(), c.Param("id"), mw.UserID(c), req.ScheduledFor)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusConflict, "appointment is not pending")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	return h.transition(c, model.StatusCancelada, model.StatusPendiente, model.StatusConfirmada)
}

func (h *Handler) CompleteAppointment(c echo.Context) error {
	return h.transition(c, model.StatusCompletada, model.StatusConfirmada)
}

func (h *Handler) transition(c echo.Context, to string, from ...string) error {
	err := h.store.SetAppointmentStatus(c.Request().Context(), c.Param("id"), to, from...)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusConflict, "invalid status transition")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
