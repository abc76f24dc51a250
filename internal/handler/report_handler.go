package handler

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"vetclinic-api/internal/model"
)

type salesReport struct {
	Count        int     `json:"count"`
	TotalRevenue float64 `json:"totalRevenue"`
	PaidTotal    float64 `json:"paidTotal"`
	PendingTotal float64 `json:"pendingTotal"`
}

func (h *Handler) SalesReport(c echo.Context) error {
	from, to, err := dateRange(c, 30*24*time.Hour)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date range")
	}
	sales, err := h.store.ListSales(c.Request().Context(), from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var rep salesReport
	for _, s := range sales {
		rep.Count++
		rep.TotalRevenue += s.Total
		if s.PaymentStatus == model.PaymentPagado {
			rep.PaidTotal += s.Total
		} else {
			rep.PendingTotal += s.Total
		}
	}
	return c.JSON(http.StatusOK, rep)
}

type inventoryReport struct {
	Products   int     `json:"products"`
	TotalValue float64 `json:"totalValue"`
	LowStock   int     `json:"lowStock"`
	OutOfStock int     `json:"outOfStock"`
}

func (h *Handler) InventoryReport(c echo.Context) error {
	products, err := h.store.ListProducts(c.Request().Context(), false)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, summarizeInventory(products))
}

func summarizeInventory(products []model.Product) inventoryReport {
	var rep inventoryReport
	for _, p := range products {
		rep.Products++
		rep.TotalValue += p.Price * float64(p.Stock)
		if p.Stock == 0 {
			rep.OutOfStock++
		} else if p.Stock <= p.ReorderLevel {
			rep.LowStock++
		}
	}
	return rep
}

func (h *Handler) AppointmentsReport(c echo.Context) error {
	apts, err := h.store.ListAllAppointments(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	byStatus := map[string]int{}
	for _, a := range apts {
		byStatus[a.Status]++
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":    len(apts),
		"byStatus": byStatus,
	})
}

// -- CSV exports; column sets match the clinic's admin exports --

func (h *Handler) SalesCSV(c echo.Context) error {
	from, to, err := dateRange(c, 30*24*time.Hour)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date range")
	}
	sales, err := h.store.ListSales(c.Request().Context(), from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return h.sendCSV(c, "reporte_ventas", func(w io.Writer) error {
		return writeSalesCSV(w, sales)
	})
}

func writeSalesCSV(w io.Writer, sales []model.Sale) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Fecha", "Cliente", "Total", "Estado"}); err != nil {
		return err
	}
	for _, s := range sales {
		rec := []string{
			s.CreatedAt.Format("2006-01-02 15:04"),
			s.CustomerID,
			fmt.Sprintf("%.2f", s.Total),
			s.PaymentStatus,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (h *Handler) InventoryCSV(c echo.Context) error {
	products, err := h.store.ListProducts(c.Request().Context(), false)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return h.sendCSV(c, "reporte_inventario", func(w io.Writer) error {
		return writeInventoryCSV(w, products)
	})
}

func writeInventoryCSV(w io.Writer, products []model.Product) error {
	cw := csv.NewWriter(w)
	header := []string{"SKU", "Nombre", "Categoria", "Stock", "Stock Minimo", "Costo", "Precio", "Valor Total"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range products {
		rec := []string{
			p.SKU,
			p.Name,
			p.Category,
			fmt.Sprintf("%d", p.Stock),
			fmt.Sprintf("%d", p.ReorderLevel),
			fmt.Sprintf("%.2f", p.Cost),
			fmt.Sprintf("%.2f", p.Price),
			fmt.Sprintf("%.2f", p.Price*float64(p.Stock)),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (h *Handler) AppointmentsCSV(c echo.Context) error {
	apts, err := h.store.ListAllAppointments(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return h.sendCSV(c, "reporte_citas", func(w io.Writer) error {
		return writeAppointmentsCSV(w, apts)
	})
}

func writeAppointmentsCSV(w io.Writer, apts []model.Appointment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Fecha", "Cliente", "Mascota", "Tipo", "Estado", "Motivo"}); err != nil {
		return err
	}
	for _, a := range apts {
		fecha := ""
		if a.ScheduledFor != nil {
			fecha = a.ScheduledFor.Format("2006-01-02 15:04")
		}
		rec := []string{fecha, a.ClientID, a.PetID, a.Type, a.Status, a.Reason}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (h *Handler) sendCSV(c echo.Context, name string, write func(io.Writer) error) error {
	filename := fmt.Sprintf("%s_%s.csv", name, time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().WriteHeader(http.StatusOK)
	return write(c.Response())
}
