package meeting

import (
	"errors"
	"fmt"
)

// Kind classifies a provisioning failure so callers can decide whether and
// how to retry.
type Kind string

const (
	KindInvalidRequest        Kind = "invalid_request"
	KindMisconfigured         Kind = "misconfigured"
	KindUpstreamAuthFailure   Kind = "upstream_auth_failure"
	KindUpstreamEventCreation Kind = "upstream_event_creation_failure"
	KindUpstreamResponseShape Kind = "upstream_response_shape"
	KindPartialFailure        Kind = "partial_failure"
	KindInternal              Kind = "internal"
)

// Retryable reports whether rerunning the whole operation is safe. Response
// shape and partial failures leave an event behind upstream; those need the
// persistence-only resume path or manual reconciliation, not a full redo.
func (k Kind) Retryable() bool {
	switch k {
	case KindUpstreamAuthFailure, KindUpstreamEventCreation:
		return true
	}
	return false
}

type Error struct {
	Kind    Kind
	Message string

	// EventID and MeetingURL are set once an upstream event exists, so a
	// partial failure never loses the reference to the orphan.
	EventID    string
	MeetingURL string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind, defaulting to KindInternal for anything
// that escaped classification.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindInternal
}
