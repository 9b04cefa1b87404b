package application

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNotStarted            Status = "not_started"
	StatusInvalidated           Status = "invalidated"
	StatusInAssessment          Status = "in_assessment"
	StatusAssessmentInProgress  Status = "assessment_in_progress"
	StatusAwaitingDetermination Status = "awaiting_determination"
	StatusAwaitingCorrection    Status = "awaiting_correction"
	StatusDetermined            Status = "determined"
	StatusReturned              Status = "returned"
	StatusWithdrawn             Status = "withdrawn"
	StatusClosed                Status = "closed"
)

// Terminal reports whether the status ends processing; terminal
// applications are never transitioned again and accept no new
// validation requests.
func (s Status) Terminal() bool {
	switch s {
	case StatusDetermined, StatusReturned, StatusWithdrawn, StatusClosed:
		return true
	}
	return false
}

func (s Status) InProgress() bool {
	return !s.Terminal()
}

// Revalidatable reports whether a pre-validation-only request may still
// be raised: the application either has not started validation or has
// been sent back to the applicant as invalid.
func (s Status) Revalidatable() bool {
	return s == StatusNotStarted || s == StatusInvalidated
}

// Application is the planning case being processed. Status is mutated
// only through the lifecycle transition methods; every reached status
// is timestamped in StatusTimestamps.
type Application struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	ID        uuid.UUID `json:"id"`
	Reference string    `json:"reference"`

	Description     string          `json:"description"`
	BoundaryGeoJSON json.RawMessage `json:"boundary_geojson,omitempty"`

	Status   Status  `json:"status"`
	Decision *string `json:"decision,omitempty"`

	ValidatedAt                 *time.Time `json:"validated_at,omitempty"`
	InvalidatedAt               *time.Time `json:"invalidated_at,omitempty"`
	ClosedOrCancellationComment *string    `json:"closed_or_cancellation_comment,omitempty"`

	// Derived validity flags, tri-state: nil means not yet checked.
	// Open validation requests push these to false; cancelling the
	// request resets them to nil; approval pushes them to true.
	ValidRedLineBoundary      *bool `json:"valid_red_line_boundary,omitempty"`
	ValidFee                  *bool `json:"valid_fee,omitempty"`
	ValidDescription          *bool `json:"valid_description,omitempty"`
	ValidOwnershipCertificate *bool `json:"valid_ownership_certificate,omitempty"`
	DocumentsMissing          *bool `json:"documents_missing,omitempty"`

	StatusTimestamps map[Status]time.Time `json:"status_timestamps"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(tenantID uuid.UUID, reference, description string) *Application {
	return &Application{
		TenantID:         tenantID,
		Reference:        reference,
		Description:      description,
		Status:           StatusNotStarted,
		StatusTimestamps: map[Status]time.Time{},
	}
}

// ValidationComplete reports whether the application has passed its
// initial validation gate.
func (a *Application) ValidationComplete() bool {
	return a.ValidatedAt != nil
}

func (a *Application) stampStatus(now time.Time) {
	if a.StatusTimestamps == nil {
		a.StatusTimestamps = map[Status]time.Time{}
	}
	a.StatusTimestamps[a.Status] = now
}
