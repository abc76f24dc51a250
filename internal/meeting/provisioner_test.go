package meeting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"

	"vetclinic-api/internal/config"
	"vetclinic-api/internal/gcal"
	"vetclinic-api/internal/model"
	"vetclinic-api/internal/store"
)

type fakeStore struct {
	mu sync.Mutex

	apt    *model.Appointment
	aptErr error

	setLinkErr   error
	setLinkCalls int
	lastURL      string
	lastStart    time.Time

	orphan    *model.OrphanEvent
	orphanErr error
	created   []*model.OrphanEvent
	resolved  int
}

func (f *fakeStore) AppointmentByID(ctx context.Context, id string) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.aptErr != nil {
		return nil, f.aptErr
	}
	cp := *f.apt
	return &cp, nil
}

func (f *fakeStore) SetConferenceLink(ctx context.Context, id, url string, start time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setLinkCalls++
	if f.setLinkErr != nil {
		return f.setLinkErr
	}
	f.lastURL = url
	f.lastStart = start
	if f.apt != nil {
		f.apt.TeleconferenceURL = url
	}
	return nil
}

func (f *fakeStore) CreateOrphanEvent(ctx context.Context, o *model.OrphanEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, o)
	return nil
}

func (f *fakeStore) UnresolvedOrphan(ctx context.Context, appointmentID string) (*model.OrphanEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orphan, f.orphanErr
}

func (f *fakeStore) ResolveOrphansForAppointment(ctx context.Context, appointmentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved++
	f.orphan = nil
	return nil
}

type fakeCalendar struct {
	mu sync.Mutex

	tok        *oauth2.Token
	tokErr     error
	tokenCalls int

	ev          *calendar.Event
	evErr       error
	insertCalls int
	lastSummary string
	lastStart   time.Time
	lastEnd     time.Time
}

func (f *fakeCalendar) AccessToken(ctx context.Context) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++
	if f.tokErr != nil {
		return nil, f.tokErr
	}
	return f.tok, nil
}

func (f *fakeCalendar) InsertMeetEvent(ctx context.Context, tok *oauth2.Token, summary string, start, end time.Time) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	f.lastSummary = summary
	f.lastStart = start
	f.lastEnd = end
	if f.evErr != nil {
		return nil, f.evErr
	}
	return f.ev, nil
}

func (f *fakeCalendar) CalendarID() string { return "primary" }

func testGoogleConfig() config.Google {
	return config.Google{
		ClientID:      "cid",
		ClientSecret:  "csecret",
		RefreshToken:  "rtok",
		CalendarID:    "primary",
		TokenURL:      "https://oauth2.googleapis.com/token",
		TimeZone:      "America/Bogota",
		ReuseExisting: true,
		CallTimeout:   5 * time.Second,
	}
}

func pending(id string) *model.Appointment {
	return &model.Appointment{ID: id, ClientID: "client-1", PetID: "pet-1", Status: model.StatusConfirmada}
}

func TestProvisionSuccess(t *testing.T) {
	start := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	st := &fakeStore{apt: pending("apt-123")}
	cal := &fakeCalendar{
		tok: &oauth2.Token{AccessToken: "tok"},
		ev:  &calendar.Event{Id: "evt-1", HangoutLink: "https://meet.example/abc"},
	}
	p := New(testGoogleConfig(), cal, st, zerolog.Nop())

	res, err := p.Provision(context.Background(), "apt-123", start)
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if res.MeetingURL != "https://meet.example/abc" {
		t.Errorf("meeting url = %q", res.MeetingURL)
	}
	if res.EventID != "evt-1" {
		t.Errorf("event id = %q", res.EventID)
	}
	if cal.lastSummary != "Cita #apt-123" {
		t.Errorf("summary = %q", cal.lastSummary)
	}
	if got, want := cal.lastEnd.Sub(cal.lastStart), 30*time.Minute; got != want {
		t.Errorf("duration = %v, want %v", got, want)
	}
	if st.lastURL != "https://meet.example/abc" {
		t.Errorf("persisted url = %q", st.lastURL)
	}
	if !st.lastStart.Equal(start) {
		t.Errorf("persisted start = %v, want %v", st.lastStart, start)
	}
	if st.setLinkCalls != 1 {
		t.Errorf("persistence updates = %d, want 1", st.setLinkCalls)
	}
}

func TestProvisionValidation(t *testing.T) {
	cal := &fakeCalendar{}
	p := New(testGoogleConfig(), cal, &fakeStore{apt: pending("apt-1")}, zerolog.Nop())

	tests := []struct {
		name  string
		id    string
		start time.Time
	}{
		{"missing id", "", time.Now()},
		{"zero start", "apt-1", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Provision(context.Background(), tt.id, tt.start)
			if KindOf(err) != KindInvalidRequest {
				t.Fatalf("kind = %v, want %v", KindOf(err), KindInvalidRequest)
			}
		})
	}
	if cal.tokenCalls != 0 || cal.insertCalls != 0 {
		t.Errorf("upstream called on invalid input: tokens=%d inserts=%d", cal.tokenCalls, cal.insertCalls)
	}
}

func TestProvisionMisconfigured(t *testing.T) {
	cfg := testGoogleConfig()
	cfg.RefreshToken = ""
	cal := &fakeCalendar{}
	p := New(cfg, cal, &fakeStore{apt: pending("apt-1")}, zerolog.Nop())

	_, err := p.Provision(context.Background(), "apt-1", time.Now())
	if KindOf(err) != KindMisconfigured {
		t.Fatalf("kind = %v, want %v", KindOf(err), KindMisconfigured)
	}
	if cal.tokenCalls != 0 {
		t.Errorf("token endpoint called while misconfigured")
	}
}

func TestProvisionUnknownAppointment(t *testing.T) {
	st := &fakeStore{aptErr: store.ErrNotFound}
	p := New(testGoogleConfig(), &fakeCalendar{}, st, zerolog.Nop())

	_, err := p.Provision(context.Background(), "nope", time.Now())
	if KindOf(err) != KindInvalidRequest {
		t.Fatalf("kind = %v, want %v", KindOf(err), KindInvalidRequest)
	}
}

func TestProvisionReusesExistingLink(t *testing.T) {
	apt := pending("apt-1")
	apt.TeleconferenceURL = "https://meet.example/existing"
	cal := &fakeCalendar{}
	p := New(testGoogleConfig(), cal, &fakeStore{apt: apt}, zerolog.Nop())

	res, err := p.Provision(context.Background(), "apt-1", time.Now())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if res.MeetingURL != "https://meet.example/existing" {
		t.Errorf("meeting url = %q", res.MeetingURL)
	}
	if cal.tokenCalls != 0 || cal.insertCalls != 0 {
		t.Errorf("upstream called despite existing link")
	}
}

func TestProvisionReuseDisabled(t *testing.T) {
	cfg := testGoogleConfig()
	cfg.ReuseExisting = false
	apt := pending("apt-1")
	apt.TeleconferenceURL = "https://meet.example/existing"
	cal := &fakeCalendar{
		tok: &oauth2.Token{AccessToken: "tok"},
		ev:  &calendar.Event{Id: "evt-2", HangoutLink: "https://meet.example/new"},
	}
	p := New(cfg, cal, &fakeStore{apt: apt}, zerolog.Nop())

	res, err := p.Provision(context.Background(), "apt-1", time.Now())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if res.MeetingURL != "https://meet.example/new" {
		t.Errorf("meeting url = %q, want fresh link", res.MeetingURL)
	}
	if cal.insertCalls != 1 {
		t.Errorf("insert calls = %d, want 1", cal.insertCalls)
	}
}

func TestProvisionAuthFailure(t *testing.T) {
	cal := &fakeCalendar{tokErr: fmt.Errorf("invalid_grant")}
	st := &fakeStore{apt: pending("apt-1")}
	p := New(testGoogleConfig(), cal, st, zerolog.Nop())

	_, err := p.Provision(context.Background(), "apt-1", time.Now())
	if KindOf(err) != KindUpstreamAuthFailure {
		t.Fatalf("kind = %v, want %v", KindOf(err), KindUpstreamAuthFailure)
	}
	if cal.insertCalls != 0 {
		t.Errorf("calendar called after auth failure")
	}
	if st.setLinkCalls != 0 {
		t.Errorf("appointment updated after auth failure")
	}
	var me *Error
	if !errors.As(err, &me) || !me.Kind.Retryable() {
		t.Errorf("auth failure should be retryable")
	}
}

func TestProvisionEventCreationFailure(t *testing.T) {
	cal := &fakeCalendar{
		tok:   &oauth2.Token{AccessToken: "tok"},
		evErr: fmt.Errorf("backend error"),
	}
	st := &fakeStore{apt: pending("apt-1")}
	p := New(testGoogleConfig(), cal, st, zerolog.Nop())

	_, err := p.Provision(context.Background(), "apt-1", time.Now())
	if KindOf(err) != KindUpstreamEventCreation {
		t.Fatalf("kind = %v, want %v", KindOf(err), KindUpstreamEventCreation)
	}
	if st.setLinkCalls != 0 {
		t.Errorf("appointment updated after failed event creation")
	}
	if len(st.created) != 0 {
		t.Errorf("orphan recorded for an event that was never created")
	}
}

func TestProvisionMissingLink(t *testing.T) {
	cal := &fakeCalendar{
		tok: &oauth2.Token{AccessToken: "tok"},
		ev:  &calendar.Event{Id: "evt-9"},
	}
	st := &fakeStore{apt: pending("apt-1")}
	p := New(testGoogleConfig(), cal, st, zerolog.Nop())

	_, err := p.Provision(context.Background(), "apt-1", time.Now())
	if KindOf(err) != KindUpstreamResponseShape {
		t.Fatalf("kind = %v, want %v", KindOf(err), KindUpstreamResponseShape)
	}
	var me *Error
	if !errors.As(err, &me) {
		t.Fatalf("error type = %T", err)
	}
	if me.EventID != "evt-9" {
		t.Errorf("event id = %q, want evt-9", me.EventID)
	}
	if len(st.created) != 1 {
		t.Fatalf("orphan entries = %d, want 1", len(st.created))
	}
	if o := st.created[0]; o.EventID != "evt-9" || o.CalendarID != "primary" {
		t.Errorf("orphan = %+v", o)
	}
	if st.setLinkCalls != 0 {
		t.Errorf("appointment updated without a link")
	}
}

func TestProvisionRetryAfterTransientFailure(t *testing.T) {
	cal := &fakeCalendar{tokErr: fmt.Errorf("temporarily unavailable")}
	st := &fakeStore{apt: pending("apt-1")}
	p := New(testGoogleConfig(), cal, st, zerolog.Nop())

	_, err := p.Provision(context.Background(), "apt-1", time.Now())
	if KindOf(err) != KindUpstreamAuthFailure {
		t.Fatalf("kind = %v, want %v", KindOf(err), KindUpstreamAuthFailure)
	}

	cal.tokErr = nil
	cal.tok = &oauth2.Token{AccessToken: "tok"}
	cal.ev = &calendar.Event{Id: "evt-1", HangoutLink: "https://meet.example/abc"}

	res, err := p.Provision(context.Background(), "apt-1", time.Now())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.MeetingURL != "https://meet.example/abc" {
		t.Errorf("meeting url = %q", res.MeetingURL)
	}
	if st.setLinkCalls != 1 {
		t.Errorf("persistence updates = %d, want exactly 1", st.setLinkCalls)
	}
}

func TestProvisionPersistFailure(t *testing.T) {
	cal := &fakeCalendar{
		tok: &oauth2.Token{AccessToken: "tok"},
		ev:  &calendar.Event{Id: "evt-5", HangoutLink: "https://meet.example/xyz"},
	}
	st := &fakeStore{apt: pending("apt-1"), setLinkErr: fmt.Errorf("connection reset")}
	p := New(testGoogleConfig(), cal, st, zerolog.Nop())

	_, err := p.Provision(context.Background(), "apt-1", time.Now())
	if KindOf(err) != KindPartialFailure {
		t.Fatalf("kind = %v, want %v", KindOf(err), KindPartialFailure)
	}
	var me *Error
	if !errors.As(err, &me) {
		t.Fatalf("error type = %T", err)
	}
	if me.EventID != "evt-5" || me.MeetingURL != "https://meet.example/xyz" {
		t.Errorf("error carries event=%q url=%q", me.EventID, me.MeetingURL)
	}
	if len(st.created) != 1 {
		t.Fatalf("orphan entries = %d, want 1", len(st.created))
	}
	if st.created[0].MeetingURL != "https://meet.example/xyz" {
		t.Errorf("orphan url = %q", st.created[0].MeetingURL)
	}
}

func TestProvisionResumesOrphan(t *testing.T) {
	cal := &fakeCalendar{}
	st := &fakeStore{
		apt: pending("apt-1"),
		orphan: &model.OrphanEvent{
			ID:            "orph-1",
			AppointmentID: "apt-1",
			EventID:       "evt-5",
			CalendarID:    "primary",
			MeetingURL:    "https://meet.example/xyz",
		},
	}
	p := New(testGoogleConfig(), cal, st, zerolog.Nop())

	res, err := p.Provision(context.Background(), "apt-1", time.Now())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if res.MeetingURL != "https://meet.example/xyz" {
		t.Errorf("meeting url = %q", res.MeetingURL)
	}
	if cal.tokenCalls != 0 || cal.insertCalls != 0 {
		t.Errorf("upstream called while resuming orphan: tokens=%d inserts=%d", cal.tokenCalls, cal.insertCalls)
	}
	if st.resolved != 1 {
		t.Errorf("orphan not resolved after successful persistence")
	}
}

func TestProvisionSerializesPerAppointment(t *testing.T) {
	cal := &fakeCalendar{
		tok: &oauth2.Token{AccessToken: "tok"},
		ev:  &calendar.Event{Id: "evt-1", HangoutLink: "https://meet.example/abc"},
	}
	st := &fakeStore{apt: pending("apt-1")}
	p := New(testGoogleConfig(), cal, st, zerolog.Nop())

	start := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Provision(context.Background(), "apt-1", start); err != nil {
				t.Errorf("Provision: %v", err)
			}
		}()
	}
	wg.Wait()

	// the first caller creates the event; everyone queued behind it sees the
	// persisted link and reuses it
	if cal.insertCalls != 1 {
		t.Errorf("insert calls = %d, want 1", cal.insertCalls)
	}
}

// End to end through the real OAuth and Calendar clients, with both Google
// endpoints stubbed locally.
func TestProvisionEndToEnd(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if g := r.Form.Get("grant_type"); g != "refresh_token" {
			t.Errorf("grant_type = %q", g)
		}
		if rt := r.Form.Get("refresh_token"); rt != "rtok" {
			t.Errorf("refresh_token = %q", rt)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	calSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		if v := r.URL.Query().Get("conferenceDataVersion"); v != "1" {
			t.Errorf("conferenceDataVersion = %q", v)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "evt-1",
			"conferenceData": {
				"entryPoints": [
					{"entryPointType": "phone", "uri": "tel:+1-555-0100"},
					{"entryPointType": "video", "uri": "https://meet.example/abc"}
				]
			}
		}`)
	}))
	defer calSrv.Close()

	cfg := testGoogleConfig()
	cfg.TokenURL = tokenSrv.URL
	cfg.CalendarEndpoint = calSrv.URL

	st := &fakeStore{apt: pending("apt-123")}
	p := New(cfg, gcal.New(cfg), st, zerolog.Nop())

	start := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	res, err := p.Provision(context.Background(), "apt-123", start)
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if res.MeetingURL != "https://meet.example/abc" {
		t.Errorf("meeting url = %q", res.MeetingURL)
	}
	if st.lastURL != "https://meet.example/abc" {
		t.Errorf("persisted url = %q", st.lastURL)
	}
}
