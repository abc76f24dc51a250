package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"vetclinic-api/internal/gcal"
	"vetclinic-api/internal/meeting"
	mw "vetclinic-api/internal/middleware"
	"vetclinic-api/internal/model"
	"vetclinic-api/internal/store"
)

type Handler struct {
	store  *store.Store
	prov   *meeting.Provisioner
	google *gcal.Client
	secret string
	log    zerolog.Logger
}

func New(st *store.Store, prov *meeting.Provisioner, google *gcal.Client, secret string, log zerolog.Logger) *Handler {
	return &Handler{store: st, prov: prov, google: google, secret: secret, log: log}
}

// RegisterRoutes wires every endpoint under /api/v1. The limiter guards the
// unauthenticated auth endpoints and meeting provisioning.
func (h *Handler) RegisterRoutes(e *echo.Echo, rl *mw.RateLimiter) {
	api := e.Group("/api/v1")

	limited := mw.RateLimit(rl)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Register, limited)
	authGroup.POST("/login", h.Login, limited)
	authGroup.POST("/refresh", h.Refresh, limited)

	priv := api.Group("", mw.Auth(h.secret))
	priv.POST("/auth/logout", h.Logout)
	priv.POST("/integrations/google", h.LinkGoogle)

	staff := priv.Group("", mw.RequireRole(model.RoleVet, model.RoleAdmin))
	staff.POST("/meetings", h.CreateMeeting, limited)

	admin := priv.Group("", mw.RequireRole(model.RoleAdmin))
	admin.GET("/meetings/orphans", h.ListOrphans)
	admin.POST("/meetings/orphans/:id/resolve", h.ResolveOrphan)

	priv.POST("/appointments", h.CreateAppointment, mw.RequireRole(model.RoleClient))
	priv.GET("/appointments", h.ListAppointments)
	priv.GET("/appointments/:id", h.GetAppointment)
	staff.POST("/appointments/:id/confirm", h.ConfirmAppointment)
	staff.POST("/appointments/:id/cancel", h.CancelAppointment)
	staff.POST("/appointments/:id/complete", h.CompleteAppointment)

	priv.POST("/pets", h.CreatePet, mw.RequireRole(model.RoleClient))
	priv.GET("/pets", h.ListPets)
	priv.GET("/pets/:id", h.GetPet)
	priv.PUT("/pets/:id", h.UpdatePet, mw.RequireRole(model.RoleClient))
	priv.DELETE("/pets/:id", h.DeletePet, mw.RequireRole(model.RoleClient))

	priv.GET("/pets/:id/record", h.GetClinicalRecord)
	priv.POST("/pets/:id/record/entries", h.AddClinicalEntry, mw.RequireRole(model.RoleVet))
	priv.PUT("/records/:id/notes", h.UpdateRecordNotes, mw.RequireRole(model.RoleVet))

	priv.GET("/products", h.ListProducts)
	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.POST("/inventory/movements", h.RecordMovement)
	admin.GET("/products/:id/movements", h.ListMovements)

	priv.POST("/sales", h.CreateSale)
	priv.GET("/sales", h.ListSales)
	priv.GET("/sales/:id", h.GetSale)
	admin.PATCH("/sales/:id/payment", h.SetPaymentStatus)

	admin.GET("/users", h.ListUsers)
	admin.POST("/users/:id/roles", h.AssignRole)
	admin.DELETE("/users/:id", h.DeleteUser)

	admin.GET("/reports/sales", h.SalesReport)
	admin.GET("/reports/inventory", h.InventoryReport)
	admin.GET("/reports/appointments", h.AppointmentsReport)
	admin.GET("/reports/sales.csv", h.SalesCSV)
	admin.GET("/reports/inventory.csv", h.InventoryCSV)
	admin.GET("/reports/appointments.csv", h.AppointmentsCSV)
}
