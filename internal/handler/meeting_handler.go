package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"vetclinic-api/internal/meeting"
	"vetclinic-api/internal/store"
)

type createMeetingRequest struct {
	AppointmentID string `json:"appointmentId"`
	Datetime      string `json:"datetime"`
}

type meetingErrorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind"`
	Retryable  bool   `json:"retryable"`
	EventID    string `json:"eventId,omitempty"`
	MeetingURL string `json:"meetingUrl,omitempty"`
}

// CreateMeeting provisions a Meet link for an appointment.
func (h *Handler) CreateMeeting(c echo.Context) error {
	var req createMeetingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, meetingErrorResponse{
			Error: "invalid body", Kind: string(meeting.KindInvalidRequest),
		})
	}
	if req.AppointmentID == "" {
		return c.JSON(http.StatusBadRequest, meetingErrorResponse{
			Error: "appointmentId is required", Kind: string(meeting.KindInvalidRequest),
		})
	}

	start, err := parseDatetime(req.Datetime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, meetingErrorResponse{
			Error: "datetime is not a valid instant", Kind: string(meeting.KindInvalidRequest),
		})
	}

	res, err := h.prov.Provision(c.Request().Context(), req.AppointmentID, start)
	if err != nil {
		return c.JSON(meetingStatus(err), meetingError(err))
	}
	return c.JSON(http.StatusOK, res)
}

// parseDatetime accepts RFC 3339 plus the zone-less form browsers emit from
// datetime-local inputs.
func parseDatetime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("empty datetime")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", raw)
}

func meetingStatus(err error) int {
	switch meeting.KindOf(err) {
	case meeting.KindInvalidRequest:
		return http.StatusBadRequest
	case meeting.KindUpstreamAuthFailure,
		meeting.KindUpstreamEventCreation,
		meeting.KindUpstreamResponseShape:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func meetingError(err error) meetingErrorResponse {
	kind := meeting.KindOf(err)
	resp := meetingErrorResponse{
		Error:     err.Error(),
		Kind:      string(kind),
		Retryable: kind.Retryable(),
	}
	var me *meeting.Error
	if errors.As(err, &me) {
		resp.EventID = me.EventID
		resp.MeetingURL = me.MeetingURL
	}
	return resp
}

func (h *Handler) ListOrphans(c echo.Context) error {
	orphans, err := h.store.ListUnresolvedOrphans(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, orphans)
}

func (h *Handler) ResolveOrphan(c echo.Context) error {
	err := h.store.ResolveOrphan(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
