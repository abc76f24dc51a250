package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"vetclinic-api/internal/model"
)

const appointmentCols = `id, client_id, pet_id, vet_id, type, reason, status,
       requested_at, scheduled_for, COALESCE(teleconference_url,''), created_at, updated_at`

func scanAppointment(row interface{ Scan(...any) error }) (*model.Appointment, error) {
	a := &model.Appointment{}
	var vetID *string
	err := row.Scan(&a.ID, &a.ClientID, &a.PetID, &vetID, &a.Type, &a.Reason, &a.Status,
		&a.RequestedAt, &a.ScheduledFor, &a.TeleconferenceURL, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if vetID != nil {
		a.VetID = *vetID
	}
	return a, nil
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO appointments (id, client_id, pet_id, type, reason, status, scheduled_for)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.ClientID, a.PetID, a.Type, a.Reason, a.Status, a.ScheduledFor,
	)
	return err
}

func (s *Store) AppointmentByID(ctx context.Context, id string) (*model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (s *Store) ListAppointmentsByClient(ctx context.Context, clientID string) ([]model.Appointment, error) {
	return s.listAppointments(ctx,
		`SELECT `+appointmentCols+` FROM appointments
		 WHERE client_id = $1
		 ORDER BY scheduled_for DESC NULLS LAST, requested_at DESC`, clientID)
}

// ListOpenAppointments returns the vet work queue: pending requests plus
// confirmed visits, soonest first.
func (s *Store) ListOpenAppointments(ctx context.Context, from *time.Time) ([]model.Appointment, error) {
	q := `SELECT ` + appointmentCols + ` FROM appointments
	 WHERE status IN ('pendiente','confirmada')`
	args := []any{}
	if from != nil {
		q += ` AND scheduled_for >= $1`
		args = append(args, *from)
	}
	q += ` ORDER BY scheduled_for ASC NULLS LAST`
	return s.listAppointments(ctx, q, args...)
}

func (s *Store) ListAllAppointments(ctx context.Context) ([]model.Appointment, error) {
	return s.listAppointments(ctx,
		`SELECT `+appointmentCols+` FROM appointments ORDER BY requested_at DESC`)
}

func (s *Store) listAppointments(ctx context.Context, q string, args ...any) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ConfirmAppointment assigns the vet and the agreed time in one step.
func (s *Store) ConfirmAppointment(ctx context.Context, id, vetID string, scheduledFor time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments
		 SET status = 'confirmada', vet_id = $1, scheduled_for = $2, updated_at = NOW()
		 WHERE id = $3 AND status = 'pendiente'`,
		vetID, scheduledFor, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAppointmentStatus moves the appointment to `to`, but only from one of
// the allowed source states; anything else reports ErrNotFound.
func (s *Store) SetAppointmentStatus(ctx context.Context, id, to string, from ...string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status = ANY($3)`, to, id, from,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetConferenceLink writes the meeting URL and the confirmed start time onto
// the appointment. The caller has already created the calendar event, so a
// zero-row update is reported as ErrNotFound rather than swallowed.
func (s *Store) SetConferenceLink(ctx context.Context, id, url string, start time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments
		 SET teleconference_url = $1, scheduled_for = $2, updated_at = NOW()
		 WHERE id = $3`, url, start, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
