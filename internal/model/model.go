package model

import "time"

// Roles a user can hold. A user may hold more than one.
const (
	RoleAdmin  = "admin"
	RoleVet    = "vet"
	RoleClient = "client"
)

// Appointment statuses, kept in Spanish to match the clinic's data.
const (
	StatusPendiente  = "pendiente"
	StatusConfirmada = "confirmada"
	StatusCancelada  = "cancelada"
	StatusCompletada = "completada"
)

type User struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	FullName           string    `json:"fullName"`
	Phone              string    `json:"phone,omitempty"`
	GoogleRefreshToken string    `json:"-"`
	Roles              []string  `json:"roles,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type Pet struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"ownerId"`
	Name      string     `json:"name"`
	Species   string     `json:"species"`
	Breed     string     `json:"breed,omitempty"`
	Sex       string     `json:"sex,omitempty"`
	Color     string     `json:"color,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	PhotoURL  string     `json:"photoUrl,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Appointment struct {
	ID                string     `json:"id"`
	ClientID          string     `json:"clientId"`
	PetID             string     `json:"petId"`
	VetID             string     `json:"vetId,omitempty"`
	Type              string     `json:"type"`
	Reason            string     `json:"reason"`
	Status            string     `json:"status"`
	RequestedAt       time.Time  `json:"requestedAt"`
	ScheduledFor      *time.Time `json:"scheduledFor,omitempty"`
	TeleconferenceURL string     `json:"teleconferenceUrl,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type ClinicalRecord struct {
	ID           string    `json:"id"`
	PetID        string    `json:"petId"`
	GeneralNotes string    `json:"generalNotes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ClinicalEntry struct {
	ID              string     `json:"id"`
	RecordID        string     `json:"recordId"`
	VetID           string     `json:"vetId"`
	VisitDate       time.Time  `json:"visitDate"`
	Reason          string     `json:"reason"`
	Diagnosis       string     `json:"diagnosis,omitempty"`
	Treatment       string     `json:"treatment,omitempty"`
	Prescriptions   string     `json:"prescriptions,omitempty"`
	Weight          *float64   `json:"weight,omitempty"`
	Temperature     *float64   `json:"temperature,omitempty"`
	NextAppointment *time.Time `json:"nextAppointment,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type Product struct {
	ID           string    `json:"id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Price        float64   `json:"price"`
	Cost         float64   `json:"cost"`
	Stock        int       `json:"stock"`
	ReorderLevel int       `json:"reorderLevel"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Inventory movement types.
const (
	MovementEntrada = "entrada"
	MovementSalida  = "salida"
)

type InventoryMovement struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	MovementType string    `json:"movementType"`
	Quantity     int       `json:"quantity"`
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Sale payment statuses.
const (
	PaymentPendiente = "pendiente"
	PaymentPagado    = "pagado"
)

type Sale struct {
	ID            string     `json:"id"`
	CreatedBy     string     `json:"createdBy"`
	CustomerID    string     `json:"customerId,omitempty"`
	Total         float64    `json:"total"`
	PaymentStatus string     `json:"paymentStatus"`
	Items         []SaleItem `json:"items,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type SaleItem struct {
	ID        string  `json:"id"`
	SaleID    string  `json:"saleId"`
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
}

// RefreshToken is a server-side session record; only its hash is stored.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
	CreatedAt  time.Time
}

// OrphanEvent records a calendar event that exists upstream but whose meeting
// link never made it onto the appointment, so an operator (or a later retry)
// can reconcile instead of silently re-creating events.
type OrphanEvent struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointmentId"`
	EventID       string    `json:"eventId"`
	CalendarID    string    `json:"calendarId"`
	MeetingURL    string    `json:"meetingUrl,omitempty"`
	Reason        string    `json:"reason"`
	Resolved      bool      `json:"resolved"`
	CreatedAt     time.Time `json:"createdAt"`
}
