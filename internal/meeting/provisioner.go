// Package meeting provisions teleconference links for appointments: it trades
// the clinic's long-lived Google credential for an access token, creates a
// calendar event with an auto-generated Meet conference, and persists the
// resulting link onto the appointment.
package meeting

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"

	"vetclinic-api/internal/config"
	"vetclinic-api/internal/gcal"
	"vetclinic-api/internal/model"
	"vetclinic-api/internal/store"
)

// Every provisioned meeting is 30 minutes. Fixed policy, not configurable.
const meetingDuration = 30 * time.Minute

// Store is the slice of persistence the provisioner needs.
type Store interface {
	AppointmentByID(ctx context.Context, id string) (*model.Appointment, error)
	SetConferenceLink(ctx context.Context, id, url string, start time.Time) error
	CreateOrphanEvent(ctx context.Context, o *model.OrphanEvent) error
	UnresolvedOrphan(ctx context.Context, appointmentID string) (*model.OrphanEvent, error)
	ResolveOrphansForAppointment(ctx context.Context, appointmentID string) error
}

// Calendar is implemented by gcal.Client.
type Calendar interface {
	AccessToken(ctx context.Context) (*oauth2.Token, error)
	InsertMeetEvent(ctx context.Context, tok *oauth2.Token, summary string, start, end time.Time) (*calendar.Event, error)
	CalendarID() string
}

type Result struct {
	MeetingURL string `json:"meetingUrl"`
	EventID    string `json:"eventId,omitempty"`
}

type Provisioner struct {
	cfg   config.Google
	cal   Calendar
	store Store
	log   zerolog.Logger

	// per-appointment serialization; entries are never evicted, bounded by
	// the appointments one process provisions
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(cfg config.Google, cal Calendar, st Store, log zerolog.Logger) *Provisioner {
	return &Provisioner{
		cfg:   cfg,
		cal:   cal,
		store: st,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

func (p *Provisioner) lock(id string) func() {
	p.mu.Lock()
	m, ok := p.locks[id]
	if !ok {
		m = &sync.Mutex{}
		p.locks[id] = m
	}
	p.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// Provision runs the full flow for one appointment. Failures before the
// calendar call are safe to retry wholesale; once an event exists upstream the
// error carries its id (and the link, when captured) and a later call resumes
// at the persistence step instead of creating a second event.
func (p *Provisioner) Provision(ctx context.Context, appointmentID string, start time.Time) (*Result, error) {
	if appointmentID == "" {
		return nil, &Error{Kind: KindInvalidRequest, Message: "appointmentId is required"}
	}
	if start.IsZero() {
		return nil, &Error{Kind: KindInvalidRequest, Message: "datetime is required"}
	}
	// fail closed before any external call
	if err := p.cfg.Validate(); err != nil {
		return nil, &Error{Kind: KindMisconfigured, Message: "meeting provisioning is not configured", Err: err}
	}

	unlock := p.lock(appointmentID)
	defer unlock()

	if p.cfg.ReuseExisting {
		apt, err := p.store.AppointmentByID(ctx, appointmentID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, &Error{Kind: KindInvalidRequest, Message: "unknown appointment", Err: err}
		}
		if err != nil {
			return nil, &Error{Kind: KindInternal, Message: "appointment lookup failed", Err: err}
		}
		if apt.TeleconferenceURL != "" {
			p.log.Info().Str("appointment_id", appointmentID).Msg("reusing existing conference link")
			return &Result{MeetingURL: apt.TeleconferenceURL}, nil
		}
	}

	// a prior attempt may have created the event and captured the link but
	// failed to persist it; resume there instead of re-creating the event
	if orphan, err := p.store.UnresolvedOrphan(ctx, appointmentID); err != nil {
		p.log.Warn().Err(err).Str("appointment_id", appointmentID).Msg("orphan lookup failed")
	} else if orphan != nil && orphan.MeetingURL != "" {
		p.log.Info().
			Str("appointment_id", appointmentID).
			Str("event_id", orphan.EventID).
			Msg("resuming persistence for orphaned event")
		return p.persist(ctx, appointmentID, orphan.MeetingURL, orphan.EventID, start, false)
	}

	end := start.Add(meetingDuration)

	tctx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()
	tok, err := p.cal.AccessToken(tctx)
	if err != nil {
		return nil, &Error{Kind: KindUpstreamAuthFailure, Message: "could not obtain access token", Err: err}
	}

	cctx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()
	ev, err := p.cal.InsertMeetEvent(cctx, tok, "Cita #"+appointmentID, start, end)
	if err != nil {
		return nil, &Error{Kind: KindUpstreamEventCreation, Message: "could not create calendar event", Err: err}
	}

	url, ok := gcal.MeetLink(ev)
	if !ok {
		p.recordOrphan(ctx, appointmentID, ev.Id, "", "conference link missing from event response")
		return nil, &Error{
			Kind:    KindUpstreamResponseShape,
			Message: "event created but conference link not found in response",
			EventID: ev.Id,
		}
	}

	return p.persist(ctx, appointmentID, url, ev.Id, start, true)
}

func (p *Provisioner) persist(ctx context.Context, appointmentID, url, eventID string, start time.Time, recordOnFail bool) (*Result, error) {
	if err := p.store.SetConferenceLink(ctx, appointmentID, url, start); err != nil {
		if recordOnFail {
			p.recordOrphan(ctx, appointmentID, eventID, url, "appointment update failed")
		}
		return nil, &Error{
			Kind:       KindPartialFailure,
			Message:    "event created but appointment update failed",
			EventID:    eventID,
			MeetingURL: url,
			Err:        err,
		}
	}
	if err := p.store.ResolveOrphansForAppointment(ctx, appointmentID); err != nil {
		p.log.Warn().Err(err).Str("appointment_id", appointmentID).Msg("could not resolve orphan ledger")
	}
	return &Result{MeetingURL: url, EventID: eventID}, nil
}

// recordOrphan writes the reconciliation ledger entry and logs it with enough
// detail for manual cleanup. Ledger write failures are logged, never masked
// over the original error.
func (p *Provisioner) recordOrphan(ctx context.Context, appointmentID, eventID, url, reason string) {
	o := &model.OrphanEvent{
		ID:            uuid.New().String(),
		AppointmentID: appointmentID,
		EventID:       eventID,
		CalendarID:    p.cal.CalendarID(),
		MeetingURL:    url,
		Reason:        reason,
	}
	p.log.Error().
		Str("appointment_id", appointmentID).
		Str("event_id", eventID).
		Str("calendar_id", o.CalendarID).
		Str("reason", reason).
		Msg("orphaned calendar event")
	if err := p.store.CreateOrphanEvent(ctx, o); err != nil {
		p.log.Error().Err(err).Str("event_id", eventID).Msg("could not record orphaned event")
	}
}
