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

type recordResponse struct {
	Record  *model.ClinicalRecord `json:"record"`
	Entries []model.ClinicalEntry `json:"entries"`
}

// GetClinicalRecord returns the pet's record plus its visit entries. Clients
// only see records for their own pets.
func (h *Handler) GetClinicalRecord(c echo.Context) error {
	ctx := c.Request().Context()
	petID := c.Param("id")

	pet, err := h.store.PetByID(ctx, petID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "pet not found")
	}
	claims := mw.ClaimsFrom(c)
	if !claims.HasRole(model.RoleVet) && !claims.HasRole(model.RoleAdmin) && pet.OwnerID != claims.UserID {
		return echo.NewHTTPError(http.StatusNotFound, "pet not found")
	}

	rec, err := h.store.RecordForPet(ctx, petID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	entries, err := h.store.ListClinicalEntries(ctx, rec.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, recordResponse{Record: rec, Entries: entries})
}

type entryRequest struct {
	VisitDate       *time.Time `json:"visitDate"`
	Reason          string     `json:"reason"`
	Diagnosis       string     `json:"diagnosis"`
	Treatment       string     `json:"treatment"`
	Prescriptions   string     `json:"prescriptions"`
	Weight          *float64   `json:"weight"`
	Temperature     *float64   `json:"temperature"`
	NextAppointment *time.Time `json:"nextAppointment"`
}

func (h *Handler) AddClinicalEntry(c echo.Context) error {
	var req entryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Reason == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reason required")
	}
	ctx := c.Request().Context()

	rec, err := h.store.RecordForPet(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "pet not found")
	}

	visit := time.Now()
	if req.VisitDate != nil {
		visit = *req.VisitDate
	}
	e := &model.ClinicalEntry{
		ID:              uuid.New().String(),
		RecordID:        rec.ID,
		VetID:           mw.UserID(c),
		VisitDate:       visit,
		Reason:          req.Reason,
		Diagnosis:       req.Diagnosis,
		Treatment:       req.Treatment,
		Prescriptions:   req.Prescriptions,
		Weight:          req.Weight,
		Temperature:     req.Temperature,
		NextAppointment: req.NextAppointment,
	}
	if err := h.store.AddClinicalEntry(ctx, e); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, e)
}

type notesRequest struct {
	GeneralNotes string `json:"generalNotes"`
}

func (h *Handler) UpdateRecordNotes(c echo.Context) error {
	var req notesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	err := h.store.UpdateRecordNotes(c.Request().Context(), c.Param("id"), req.GeneralNotes)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
