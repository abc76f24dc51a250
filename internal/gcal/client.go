// Package gcal wraps the two Google APIs the clinic touches: the OAuth token
// endpoint and the Calendar events API.
package gcal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"vetclinic-api/internal/config"
)

type Client struct {
	cfg config.Google
}

func New(cfg config.Google) *Client {
	return &Client{cfg: cfg}
}

func (c *Client) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AccessToken trades the stored long-lived refresh token for a short-lived
// access token.
func (c *Client) AccessToken(ctx context.Context) (*oauth2.Token, error) {
	ts := c.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: c.cfg.RefreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token refresh: response without access token")
	}
	return tok, nil
}

// ExchangeCode swaps an authorization code for tokens during account linking.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	conf := c.oauthConfig()
	conf.RedirectURL = redirectURI
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	return tok, nil
}

// InsertMeetEvent creates a calendar event with an auto-generated Meet
// conference attached. The conference request id is random per call, so a
// retry creates a new event rather than reusing a prior one.
func (c *Client) InsertMeetEvent(ctx context.Context, tok *oauth2.Token, summary string, start, end time.Time) (*calendar.Event, error) {
	opts := []option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(tok))}
	if c.cfg.CalendarEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.cfg.CalendarEndpoint))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	ev := &calendar.Event{
		Summary: summary,
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: c.cfg.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: c.cfg.TimeZone,
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: uuid.New().String(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}

	created, err := svc.Events.Insert(c.cfg.CalendarID, ev).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return created, nil
}

// CalendarID reports which calendar events land on, for orphan bookkeeping.
func (c *Client) CalendarID() string { return c.cfg.CalendarID }

// MeetLink extracts the conference URL from a created event: the direct
// hangoutLink when present, otherwise the first video entry point.
func MeetLink(ev *calendar.Event) (string, bool) {
	if ev.HangoutLink != "" {
		return ev.HangoutLink, true
	}
	if ev.ConferenceData != nil {
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && ep.Uri != "" {
				return ep.Uri, true
			}
		}
	}
	return "", false
}
