package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actor attributes a mutation. Automated work (the auto-close sweep)
// uses System rather than a nil actor, so audit entries are always
// attributable.
type Actor struct {
	UserID *uuid.UUID
	Name   string
}

func User(id uuid.UUID) Actor {
	uid := id
	return Actor{UserID: &uid}
}

var System = Actor{Name: "system"}

func (a Actor) Automated() bool {
	return a.UserID == nil
}

// Entry is one append-only activity record. ActivityInformation carries
// the stable reference (a request's sequence number) so historical
// entries stay attributable after cancellations.
type Entry struct {
	TenantID            uuid.UUID  `json:"tenant_id"`
	ID                  uuid.UUID  `json:"id"`
	ApplicationID       uuid.UUID  `json:"application_id"`
	UserID              *uuid.UUID `json:"user_id,omitempty"`
	ActivityType        string     `json:"activity_type"`
	ActivityInformation *string    `json:"activity_information,omitempty"`
	Comment             *string    `json:"comment,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type FindParams struct {
	ActivityType string
	Limit        int
	Offset       int
}

type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	ListByApplication(ctx context.Context, applicationID uuid.UUID, params *FindParams) ([]*Entry, error)
}
