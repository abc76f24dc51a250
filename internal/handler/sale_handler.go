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

type saleItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type saleRequest struct {
	CustomerID string            `json:"customerId"`
	Items      []saleItemRequest `json:"items"`
}

// CreateSale covers both the admin point of sale and the client mercadito.
// Prices come from the catalog, never from the request. Clients always buy
// for themselves.
func (h *Handler) CreateSale(c echo.Context) error {
	var req saleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if len(req.Items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one item required")
	}
	ctx := c.Request().Context()
	claims := mw.ClaimsFrom(c)

	customerID := req.CustomerID
	if !claims.HasRole(model.RoleAdmin) && !claims.HasRole(model.RoleVet) {
		customerID = claims.UserID
	}

	sale := &model.Sale{
		ID:            uuid.New().String(),
		CreatedBy:     claims.UserID,
		CustomerID:    customerID,
		PaymentStatus: model.PaymentPendiente,
	}
	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "each item needs productId and positive quantity")
		}
		p, err := h.store.ProductByID(ctx, it.ProductID)
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		subtotal := p.Price * float64(it.Quantity)
		sale.Items = append(sale.Items, model.SaleItem{
			ID:        uuid.New().String(),
			SaleID:    sale.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			Subtotal:  subtotal,
		})
		sale.Total += subtotal
	}

	err := h.store.CreateSale(ctx, sale)
	if errors.Is(err, store.ErrInsufficientStock) {
		return echo.NewHTTPError(http.StatusConflict, "insufficient stock")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, sale)
}

func (h *Handler) ListSales(c echo.Context) error {
	ctx := c.Request().Context()
	claims := mw.ClaimsFrom(c)

	if !claims.HasRole(model.RoleAdmin) && !claims.HasRole(model.RoleVet) {
		sales, err := h.store.ListSalesByCustomer(ctx, claims.UserID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusOK, sales)
	}

	from, to, err := dateRange(c, 30*24*time.Hour)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date range")
	}
	sales, err := h.store.ListSales(ctx, from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, sales)
}

func (h *Handler) GetSale(c echo.Context) error {
	sale, err := h.store.SaleByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	claims := mw.ClaimsFrom(c)
	if !claims.HasRole(model.RoleAdmin) && !claims.HasRole(model.RoleVet) && sale.CustomerID != claims.UserID {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return c.JSON(http.StatusOK, sale)
}

type paymentRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

func (h *Handler) SetPaymentStatus(c echo.Context) error {
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.PaymentStatus != model.PaymentPendiente && req.PaymentStatus != model.PaymentPagado {
		return echo.NewHTTPError(http.StatusBadRequest, "paymentStatus must be pendiente or pagado")
	}
	err := h.store.SetPaymentStatus(c.Request().Context(), c.Param("id"), req.PaymentStatus)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}

// dateRange reads ?from=&to= (RFC 3339), defaulting to the trailing window.
func dateRange(c echo.Context, window time.Duration) (time.Time, time.Time, error) {
	to := time.Now()
	from := to.Add(-window)
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, err
		}
		from = t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, err
		}
		to = t
	}
	return from, to, nil
}
