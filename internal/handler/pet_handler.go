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

type petRequest struct {
	Name      string     `json:"name"`
	Species   string     `json:"species"`
	Breed     string     `json:"breed"`
	Sex       string     `json:"sex"`
	Color     string     `json:"color"`
	BirthDate *time.Time `json:"birthDate"`
	PhotoURL  string     `json:"photoUrl"`
}

func (h *Handler) CreatePet(c echo.Context) error {
	var req petRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Species == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and species required")
	}

	p := &model.Pet{
		ID:        uuid.New().String(),
		OwnerID:   mw.UserID(c),
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		Sex:       req.Sex,
		Color:     req.Color,
		BirthDate: req.BirthDate,
		PhotoURL:  req.PhotoURL,
	}
	if err := h.store.CreatePet(c.Request().Context(), p); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPets(c echo.Context) error {
	ctx := c.Request().Context()
	claims := mw.ClaimsFrom(c)

	if claims.HasRole(model.RoleVet) || claims.HasRole(model.RoleAdmin) {
		pets, err := h.store.ListPets(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusOK, pets)
	}

	pets, err := h.store.ListPetsByOwner(ctx, claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, pets)
}

func (h *Handler) GetPet(c echo.Context) error {
	pet, err := h.store.PetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	claims := mw.ClaimsFrom(c)
	if !claims.HasRole(model.RoleVet) && !claims.HasRole(model.RoleAdmin) && pet.OwnerID != claims.UserID {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return c.JSON(http.StatusOK, pet)
}

func (h *Handler) UpdatePet(c echo.Context) error {
	var req petRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Species == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and species required")
	}

	p := &model.Pet{
		ID:        c.Param("id"),
		OwnerID:   mw.UserID(c),
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		Sex:       req.Sex,
		Color:     req.Color,
		BirthDate: req.BirthDate,
		PhotoURL:  req.PhotoURL,
	}
	err := h.store.UpdatePet(c.Request().Context(), p)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePet(c echo.Context) error {
	err := h.store.DeletePet(c.Request().Context(), c.Param("id"), mw.UserID(c))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
