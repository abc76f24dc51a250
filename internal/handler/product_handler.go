package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	mw "vetclinic-api/internal/middleware"
	"vetclinic-api/internal/model"
	"vetclinic-api/internal/store"
)

type productRequest struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	Cost         float64 `json:"cost"`
	Stock        int     `json:"stock"`
	ReorderLevel int     `json:"reorderLevel"`
}

func (h *Handler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.SKU == "" || req.Name == "" || req.Category == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sku, name and category required")
	}
	if req.Price < 0 || req.Cost < 0 || req.Stock < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amounts must not be negative")
	}

	p := &model.Product{
		ID:           uuid.New().String(),
		SKU:          req.SKU,
		Name:         req.Name,
		Category:     req.Category,
		Price:        req.Price,
		Cost:         req.Cost,
		Stock:        req.Stock,
		ReorderLevel: req.ReorderLevel,
	}
	if err := h.store.CreateProduct(c.Request().Context(), p); err != nil {
		return echo.NewHTTPError(http.StatusConflict, "product already exists")
	}
	return c.JSON(http.StatusCreated, p)
}

// ListProducts serves both the admin inventory view and the client mercadito;
// clients only see products with stock.
func (h *Handler) ListProducts(c echo.Context) error {
	claims := mw.ClaimsFrom(c)
	inStockOnly := !claims.HasRole(model.RoleAdmin) && !claims.HasRole(model.RoleVet)

	products, err := h.store.ListProducts(c.Request().Context(), inStockOnly)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, products)
}

func (h *Handler) UpdateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	p := &model.Product{
		ID:           c.Param("id"),
		SKU:          req.SKU,
		Name:         req.Name,
		Category:     req.Category,
		Price:        req.Price,
		Cost:         req.Cost,
		ReorderLevel: req.ReorderLevel,
	}
	err := h.store.UpdateProduct(c.Request().Context(), p)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, p)
}

type movementRequest struct {
	ProductID    string `json:"productId"`
	MovementType string `json:"movementType"`
	Quantity     int    `json:"quantity"`
	Reason       string `json:"reason"`
}

// RecordMovement adjusts stock via the movement journal. Stock itself is
// never edited directly.
func (h *Handler) RecordMovement(c echo.Context) error {
	var req movementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == "" || req.Quantity <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "productId and positive quantity required")
	}
	if req.MovementType != model.MovementEntrada && req.MovementType != model.MovementSalida {
		return echo.NewHTTPError(http.StatusBadRequest, "movementType must be entrada or salida")
	}

	m := &model.InventoryMovement{
		ID:           uuid.New().String(),
		ProductID:    req.ProductID,
		MovementType: req.MovementType,
		Quantity:     req.Quantity,
		Reason:       req.Reason,
	}
	err := h.store.RecordMovement(c.Request().Context(), m)
	if errors.Is(err, store.ErrInsufficientStock) {
		return echo.NewHTTPError(http.StatusConflict, "insufficient stock")
	}
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListMovements(c echo.Context) error {
	movements, err := h.store.ListMovements(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, movements)
}
