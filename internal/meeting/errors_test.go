package meeting

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindRetryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindInvalidRequest, false},
		{KindMisconfigured, false},
		{KindUpstreamAuthFailure, true},
		{KindUpstreamEventCreation, true},
		{KindUpstreamResponseShape, false},
		{KindPartialFailure, false},
		{KindInternal, false},
	}
	for _, tt := range tests {
		if got := tt.kind.Retryable(); got != tt.want {
			t.Errorf("%s.Retryable() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	inner := fmt.Errorf("boom")
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindPartialFailure, Message: "x", Err: inner})
	if got := KindOf(err); got != KindPartialFailure {
		t.Errorf("KindOf(wrapped) = %v", got)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain) = %v", got)
	}
	if !errors.Is(err, inner) {
		t.Errorf("unwrap chain broken")
	}
}
