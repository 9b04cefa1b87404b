package persistence

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/openplanning/caseflow/modules/planning/domain/application"
	"github.com/openplanning/caseflow/modules/planning/domain/audit"
	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
	"github.com/openplanning/caseflow/modules/planning/infrastructure/persistence/models"
)

func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func uuidPtrToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func stringPtrToUUID(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	id := parseUUID(*s)
	return &id
}

func toDBApplication(app *application.Application) (*models.Application, error) {
	timestamps, err := json.Marshal(app.StatusTimestamps)
	if err != nil {
		return nil, err
	}
	return &models.Application{
		ID:                          app.ID.String(),
		TenantID:                    app.TenantID.String(),
		Reference:                   app.Reference,
		Description:                 app.Description,
		BoundaryGeoJSON:             app.BoundaryGeoJSON,
		Status:                      string(app.Status),
		Decision:                    app.Decision,
		ValidatedAt:                 app.ValidatedAt,
		InvalidatedAt:               app.InvalidatedAt,
		ClosedOrCancellationComment: app.ClosedOrCancellationComment,
		ValidRedLineBoundary:        app.ValidRedLineBoundary,
		ValidFee:                    app.ValidFee,
		ValidDescription:            app.ValidDescription,
		ValidOwnershipCertificate:   app.ValidOwnershipCertificate,
		DocumentsMissing:            app.DocumentsMissing,
		StatusTimestamps:            timestamps,
		CreatedAt:                   app.CreatedAt,
		UpdatedAt:                   app.UpdatedAt,
	}, nil
}

func toDomainApplication(row *models.Application) (*application.Application, error) {
	timestamps := map[application.Status]time.Time{}
	if len(row.StatusTimestamps) > 0 {
		if err := json.Unmarshal(row.StatusTimestamps, &timestamps); err != nil {
			return nil, err
		}
	}
	return &application.Application{
		ID:                          parseUUID(row.ID),
		TenantID:                    parseUUID(row.TenantID),
		Reference:                   row.Reference,
		Description:                 row.Description,
		BoundaryGeoJSON:             row.BoundaryGeoJSON,
		Status:                      application.Status(row.Status),
		Decision:                    row.Decision,
		ValidatedAt:                 row.ValidatedAt,
		InvalidatedAt:               row.InvalidatedAt,
		ClosedOrCancellationComment: row.ClosedOrCancellationComment,
		ValidRedLineBoundary:        row.ValidRedLineBoundary,
		ValidFee:                    row.ValidFee,
		ValidDescription:            row.ValidDescription,
		ValidOwnershipCertificate:   row.ValidOwnershipCertificate,
		DocumentsMissing:            row.DocumentsMissing,
		StatusTimestamps:            timestamps,
		CreatedAt:                   row.CreatedAt,
		UpdatedAt:                   row.UpdatedAt,
	}, nil
}

func toDBRecommendation(rec *application.Recommendation) *models.Recommendation {
	return &models.Recommendation{
		ID:            rec.ID.String(),
		TenantID:      rec.TenantID.String(),
		ApplicationID: rec.ApplicationID.String(),
		AssessorID:    rec.AssessorID.String(),
		Comment:       rec.Comment,
		Submitted:     rec.Submitted,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func toDomainRecommendation(row *models.Recommendation) *application.Recommendation {
	return &application.Recommendation{
		ID:            parseUUID(row.ID),
		TenantID:      parseUUID(row.TenantID),
		ApplicationID: parseUUID(row.ApplicationID),
		AssessorID:    parseUUID(row.AssessorID),
		Comment:       row.Comment,
		Submitted:     row.Submitted,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func toDBValidationRequest(req *validationrequest.ValidationRequest) (*models.ValidationRequest, error) {
	payload, err := validationrequest.MarshalPayload(req.Payload)
	if err != nil {
		return nil, err
	}
	return &models.ValidationRequest{
		ID:             req.ID.String(),
		TenantID:       req.TenantID.String(),
		ApplicationID:  req.ApplicationID.String(),
		Kind:           string(req.Kind),
		Sequence:       req.Sequence,
		State:          string(req.State),
		PostValidation: req.PostValidation,
		CancelReason:   req.CancelReason,
		CancelledAt:    req.CancelledAt,
		NotifiedAt:     req.NotifiedAt,
		Approved:       req.Approved,
		AutoClosed:     req.AutoClosed,
		UserID:         uuidPtrToString(req.UserID),
		Payload:        payload,
		CreatedAt:      req.CreatedAt,
		UpdatedAt:      req.UpdatedAt,
	}, nil
}

func toDomainValidationRequest(row *models.ValidationRequest) (*validationrequest.ValidationRequest, error) {
	kind := validationrequest.Kind(row.Kind)
	payload, err := validationrequest.UnmarshalPayload(kind, row.Payload)
	if err != nil {
		return nil, err
	}
	return &validationrequest.ValidationRequest{
		ID:             parseUUID(row.ID),
		TenantID:       parseUUID(row.TenantID),
		ApplicationID:  parseUUID(row.ApplicationID),
		Kind:           kind,
		Sequence:       row.Sequence,
		State:          validationrequest.State(row.State),
		PostValidation: row.PostValidation,
		CancelReason:   row.CancelReason,
		CancelledAt:    row.CancelledAt,
		NotifiedAt:     row.NotifiedAt,
		Approved:       row.Approved,
		AutoClosed:     row.AutoClosed,
		UserID:         stringPtrToUUID(row.UserID),
		Payload:        payload,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

func toDomainEnvelope(row *models.ValidationRequestEnvelope) *validationrequest.Envelope {
	return &validationrequest.Envelope{
		ID:            parseUUID(row.ID),
		TenantID:      parseUUID(row.TenantID),
		ApplicationID: parseUUID(row.ApplicationID),
		Kind:          validationrequest.Kind(row.Kind),
		RequestID:     parseUUID(row.RequestID),
		UpdateCounter: row.UpdateCounter,
		ClosedAt:      row.ClosedAt,
		CreatedAt:     row.CreatedAt,
	}
}

func toDomainAuditEntry(row *models.AuditEntry) *audit.Entry {
	return &audit.Entry{
		ID:                  parseUUID(row.ID),
		TenantID:            parseUUID(row.TenantID),
		ApplicationID:       parseUUID(row.ApplicationID),
		UserID:              stringPtrToUUID(row.UserID),
		ActivityType:        row.ActivityType,
		ActivityInformation: row.ActivityInformation,
		Comment:             row.Comment,
		CreatedAt:           row.CreatedAt,
	}
}
