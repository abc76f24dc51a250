package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"vetclinic-api/internal/model"
)

func (s *Store) CreateOrphanEvent(ctx context.Context, o *model.OrphanEvent) error {
	var url *string
	if o.MeetingURL != "" {
		url = &o.MeetingURL
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO orphan_events (id, appointment_id, event_id, calendar_id, meeting_url, reason)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		o.ID, o.AppointmentID, o.EventID, o.CalendarID, url, o.Reason,
	)
	return err
}

// UnresolvedOrphan returns the most recent unresolved orphan for an
// appointment, or (nil, nil) when there is none.
func (s *Store) UnresolvedOrphan(ctx context.Context, appointmentID string) (*model.OrphanEvent, error) {
	o := &model.OrphanEvent{}
	var url *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, appointment_id, event_id, calendar_id, meeting_url, reason, resolved, created_at
		 FROM orphan_events
		 WHERE appointment_id = $1 AND NOT resolved
		 ORDER BY created_at DESC LIMIT 1`, appointmentID,
	).Scan(&o.ID, &o.AppointmentID, &o.EventID, &o.CalendarID, &url, &o.Reason, &o.Resolved, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if url != nil {
		o.MeetingURL = *url
	}
	return o, nil
}

func (s *Store) ListUnresolvedOrphans(ctx context.Context) ([]model.OrphanEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, appointment_id, event_id, calendar_id, meeting_url, reason, resolved, created_at
		 FROM orphan_events WHERE NOT resolved ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OrphanEvent
	for rows.Next() {
		var o model.OrphanEvent
		var url *string
		if err := rows.Scan(&o.ID, &o.AppointmentID, &o.EventID, &o.CalendarID, &url, &o.Reason, &o.Resolved, &o.CreatedAt); err != nil {
			return nil, err
		}
		if url != nil {
			o.MeetingURL = *url
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) ResolveOrphan(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE orphan_events SET resolved = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveOrphansForAppointment clears the ledger once a provisioning attempt
// finally lands the link on the appointment.
func (s *Store) ResolveOrphansForAppointment(ctx context.Context, appointmentID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE orphan_events SET resolved = true WHERE appointment_id = $1 AND NOT resolved`,
		appointmentID)
	return err
}
