package validationrequest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("validation request not found")

type FindParams struct {
	States []State
	Kinds  []Kind
	Limit  int
	Offset int
}

type Repository interface {
	// Create persists the request and its envelope together.
	Create(ctx context.Context, req *ValidationRequest) (*ValidationRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ValidationRequest, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*ValidationRequest, error)
	Update(ctx context.Context, req *ValidationRequest) error
	// Delete removes the request and cascades to its envelope.
	Delete(ctx context.Context, id uuid.UUID) error

	// MaxSequence returns the highest sequence ever issued for the
	// (application, kind) pair, zero when none. Sequences are assigned
	// from this high-water mark so destroying an intermediate request
	// never frees its number for reuse.
	MaxSequence(ctx context.Context, applicationID uuid.UUID, kind Kind) (int, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID, params *FindParams) ([]*ValidationRequest, error)
	ListPending(ctx context.Context, applicationID uuid.UUID) ([]*ValidationRequest, error)
	// ListOpenCreatedBefore feeds the auto-close sweep; the cutoff is a
	// coarse calendar-day bound, the caller re-checks expiry against
	// the business calendar.
	ListOpenCreatedBefore(ctx context.Context, cutoff time.Time) ([]*ValidationRequest, error)
	// LatestClosedOfKind returns the most recent closed request of the
	// kind, or ErrNotFound.
	LatestClosedOfKind(ctx context.Context, applicationID uuid.UUID, kind Kind) (*ValidationRequest, error)

	GetEnvelope(ctx context.Context, requestID uuid.UUID) (*Envelope, error)
	UpdateEnvelope(ctx context.Context, env *Envelope) error
}
