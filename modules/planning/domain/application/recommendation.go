package application

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation is an assessor's proposed decision. Submitting the
// application for determination marks the latest recommendation as
// submitted; withdrawing the recommendation reverses that.
type Recommendation struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	ID            uuid.UUID `json:"id"`
	ApplicationID uuid.UUID `json:"application_id"`
	AssessorID    uuid.UUID `json:"assessor_id"`
	Comment       string    `json:"comment"`
	Submitted     bool      `json:"submitted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
