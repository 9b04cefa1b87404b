package validationrequest

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openplanning/caseflow/pkg/serrors"
)

// ValidationRequest is a time-boxed ask to the applicant, modeled
// uniformly across kinds. State moves only through the shared workflow
// (workflow.go); kind-specific behavior lives in the KindSpec registry.
type ValidationRequest struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	ID            uuid.UUID `json:"id"`
	ApplicationID uuid.UUID `json:"application_id"`
	Kind          Kind      `json:"kind"`

	// Sequence is 1-based and scoped per (application, kind). Assigned
	// once at creation past the highest number ever issued, never
	// reused, and used as the stable audit reference.
	Sequence int `json:"sequence"`

	State          State `json:"state"`
	PostValidation bool  `json:"post_validation"`

	CancelReason *string    `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	NotifiedAt   *time.Time `json:"notified_at,omitempty"`
	Approved     *bool      `json:"approved,omitempty"`
	AutoClosed   bool       `json:"auto_closed"`

	// UserID is the requesting officer; nil means raised by the system.
	UserID *uuid.UUID `json:"user_id,omitempty"`

	Payload Payload `json:"payload"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Envelope is the polymorphic wrapper that lets all request kinds be
// queried and counted uniformly. Exactly one envelope per request,
// created with it and destroyed with it.
type Envelope struct {
	TenantID      uuid.UUID  `json:"tenant_id"`
	ID            uuid.UUID  `json:"id"`
	ApplicationID uuid.UUID  `json:"application_id"`
	Kind          Kind       `json:"kind"`
	RequestID     uuid.UUID  `json:"request_id"`
	UpdateCounter bool       `json:"update_counter"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (r *ValidationRequest) OpenOrPending() bool {
	return r.State == StateOpen || r.State == StatePending
}

// MarkAsSent transitions pending -> open and stamps the notification
// time.
func (r *ValidationRequest) MarkAsSent(now time.Time) error {
	next, err := Transition(r.State, EventMarkAsSent)
	if err != nil {
		return err
	}
	r.State = next
	t := now
	r.NotifiedAt = &t
	return nil
}

// Cancel voids the request. The reason is mandatory and is persisted
// alongside the cancellation time.
func (r *ValidationRequest) Cancel(reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return serrors.NewFieldRequiredError("cancel_reason", "a reason for cancellation is required")
	}
	next, err := Transition(r.State, EventCancel)
	if err != nil {
		return err
	}
	r.State = next
	trimmed := strings.TrimSpace(reason)
	r.CancelReason = &trimmed
	t := now
	r.CancelledAt = &t
	return nil
}

// Close records an attended closure of an open request.
func (r *ValidationRequest) Close() error {
	next, err := Transition(r.State, EventClose)
	if err != nil {
		return err
	}
	r.State = next
	return nil
}

// AutoClose records an unattended approval of an overdue request.
func (r *ValidationRequest) AutoClose() error {
	next, err := Transition(r.State, EventAutoClose)
	if err != nil {
		return err
	}
	r.State = next
	approved := true
	r.Approved = &approved
	r.AutoClosed = true
	return nil
}

// Destroyable reports whether the request may still be deleted: only
// before it has been sent.
func (r *ValidationRequest) Destroyable() bool {
	return r.State == StatePending
}
