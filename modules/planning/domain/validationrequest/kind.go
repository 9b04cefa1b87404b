package validationrequest

import (
	"github.com/openplanning/caseflow/modules/planning/domain/application"
)

type Kind string

const (
	KindAdditionalDocument    Kind = "additional_document"
	KindReplacementDocument   Kind = "replacement_document"
	KindRedLineBoundaryChange Kind = "red_line_boundary_change"
	KindDescriptionChange     Kind = "description_change"
	KindFeeChange             Kind = "fee_change"
	KindOtherChange           Kind = "other_change"
	KindOwnershipCertificate  Kind = "ownership_certificate"
)

func Kinds() []Kind {
	return []Kind{
		KindAdditionalDocument,
		KindReplacementDocument,
		KindRedLineBoundaryChange,
		KindDescriptionChange,
		KindFeeChange,
		KindOtherChange,
		KindOwnershipCertificate,
	}
}

func (k Kind) Valid() bool {
	_, ok := kindSpecs[k]
	return ok
}

// ActivityType builds the audit activity name for a workflow event,
// e.g. "red_line_boundary_change_validation_request_sent".
func (k Kind) ActivityType(event string) string {
	return string(k) + "_validation_request_" + event
}

// KindSpec is the per-kind strategy consulted by the shared workflow:
// which lifecycle phases allow creation, how the owning application's
// derived validity flags move, and what an unattended approval applies.
type KindSpec struct {
	// PreValidationOnly kinds cannot be raised once the application has
	// passed validation, unless it is back in a re-validatable state.
	PreValidationOnly bool

	// UpdatesCounter marks the envelope's update counter when the
	// request closes pre-validation.
	UpdatesCounter bool

	// MarkInvalid flags the application aspect this request disputes.
	MarkInvalid func(app *application.Application)

	// ResetValidity clears that flag again when the request is
	// cancelled, so the application is not stuck invalid because of a
	// voided request.
	ResetValidity func(app *application.Application)

	// ApplyAutoClose applies the kind-specific effect of an unattended
	// approval, e.g. adopting the proposed description.
	ApplyAutoClose func(app *application.Application, payload Payload)
}

func setFlag(target **bool, value bool) {
	v := value
	*target = &v
}

var kindSpecs = map[Kind]KindSpec{
	KindAdditionalDocument: {
		MarkInvalid:   func(app *application.Application) { setFlag(&app.DocumentsMissing, true) },
		ResetValidity: func(app *application.Application) { app.DocumentsMissing = nil },
		ApplyAutoClose: func(app *application.Application, _ Payload) {
			setFlag(&app.DocumentsMissing, false)
		},
	},
	KindReplacementDocument: {
		UpdatesCounter: true,
	},
	KindRedLineBoundaryChange: {
		UpdatesCounter: true,
		MarkInvalid:    func(app *application.Application) { setFlag(&app.ValidRedLineBoundary, false) },
		ResetValidity:  func(app *application.Application) { app.ValidRedLineBoundary = nil },
		ApplyAutoClose: func(app *application.Application, payload Payload) {
			if p, ok := payload.(RedLineBoundaryChangePayload); ok && len(p.NewGeoJSON) > 0 {
				app.BoundaryGeoJSON = p.NewGeoJSON
			}
			setFlag(&app.ValidRedLineBoundary, true)
		},
	},
	KindDescriptionChange: {
		UpdatesCounter: true,
		MarkInvalid:    func(app *application.Application) { setFlag(&app.ValidDescription, false) },
		ResetValidity:  func(app *application.Application) { app.ValidDescription = nil },
		ApplyAutoClose: func(app *application.Application, payload Payload) {
			if p, ok := payload.(DescriptionChangePayload); ok && p.ProposedDescription != "" {
				app.Description = p.ProposedDescription
			}
			setFlag(&app.ValidDescription, true)
		},
	},
	KindFeeChange: {
		PreValidationOnly: true,
		UpdatesCounter:    true,
		MarkInvalid:       func(app *application.Application) { setFlag(&app.ValidFee, false) },
		ResetValidity:     func(app *application.Application) { app.ValidFee = nil },
		ApplyAutoClose: func(app *application.Application, _ Payload) {
			setFlag(&app.ValidFee, true)
		},
	},
	KindOtherChange: {
		PreValidationOnly: true,
		UpdatesCounter:    true,
	},
	KindOwnershipCertificate: {
		PreValidationOnly: true,
		MarkInvalid:       func(app *application.Application) { setFlag(&app.ValidOwnershipCertificate, false) },
		ResetValidity:     func(app *application.Application) { app.ValidOwnershipCertificate = nil },
		ApplyAutoClose: func(app *application.Application, _ Payload) {
			setFlag(&app.ValidOwnershipCertificate, true)
		},
	},
}

func (k Kind) Spec() KindSpec {
	return kindSpecs[k]
}
