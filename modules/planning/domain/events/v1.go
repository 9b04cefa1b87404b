package events

import (
	"github.com/openplanning/caseflow/modules/planning/domain/application"
	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
)

// Domain events published after the owning transaction commits. The
// notification handlers consume them fire-and-forget; a delivery
// failure never unwinds the committed transition.

// ValidationRequestsSent fires when invalidation releases the batch of
// pending requests to the applicant.
type ValidationRequestsSent struct {
	Application *application.Application
	Requests    []*validationrequest.ValidationRequest
}

// PostValidationRequestSent fires when a request raised after
// validation is emailed immediately on creation.
type PostValidationRequestSent struct {
	Application *application.Application
	Request     *validationrequest.ValidationRequest
}

// ValidationRequestCancelled fires after a request is cancelled.
type ValidationRequestCancelled struct {
	Application *application.Application
	Request     *validationrequest.ValidationRequest
}

// ApplicationDetermined fires when the decision is published.
type ApplicationDetermined struct {
	Application *application.Application
}
