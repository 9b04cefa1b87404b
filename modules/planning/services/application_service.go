package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/openplanning/caseflow/modules/planning/domain/application"
	"github.com/openplanning/caseflow/modules/planning/domain/audit"
	"github.com/openplanning/caseflow/modules/planning/domain/events"
	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
	"github.com/openplanning/caseflow/pkg/composables"
	"github.com/openplanning/caseflow/pkg/eventbus"
	"github.com/openplanning/caseflow/pkg/serrors"
)

// ApplicationService drives the case lifecycle. Transitions load the
// application with a row lock, apply the domain transition, persist and
// audit in one transaction, then publish events for the notification
// handlers.
type ApplicationService struct {
	apps      application.Repository
	requests  validationrequest.Repository
	audits    audit.Repository
	publisher eventbus.EventBus
	validate  *validator.Validate
}

func NewApplicationService(
	apps application.Repository,
	requests validationrequest.Repository,
	audits audit.Repository,
	publisher eventbus.EventBus,
) *ApplicationService {
	return &ApplicationService{
		apps:      apps,
		requests:  requests,
		audits:    audits,
		publisher: publisher,
		validate:  validator.New(),
	}
}

type CreateApplicationParams struct {
	Reference   string `validate:"required"`
	Description string `validate:"required"`
}

func (s *ApplicationService) Create(ctx context.Context, params CreateApplicationParams) (*application.Application, error) {
	if err := s.validate.Struct(&params); err != nil {
		return nil, mapValidatorError(err)
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*application.Application, error) {
		return s.apps.Create(txCtx, application.New(tenantID, params.Reference, params.Description))
	})
}

func (s *ApplicationService) GetByID(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*application.Application, error) {
		return s.apps.GetByID(txCtx, id)
	})
}

// transition runs one guarded lifecycle step: lock, mutate, persist,
// audit. The audit entry is skipped when activityType is empty.
func (s *ApplicationService) transition(
	ctx context.Context,
	id uuid.UUID,
	actor audit.Actor,
	activityType string,
	comment string,
	fn func(app *application.Application) error,
) (*application.Application, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*application.Application, error) {
		app, err := s.apps.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(app); err != nil {
			return nil, err
		}
		if err := s.apps.Update(txCtx, app); err != nil {
			return nil, err
		}
		if activityType != "" {
			if err := recordActivity(txCtx, s.audits, app.ID, actor, activityType, "", comment); err != nil {
				return nil, err
			}
		}
		return app, nil
	})
}

// MarkValidated records that the application passed its validation
// checks. This arms the start guard; it is not a status transition.
func (s *ApplicationService) MarkValidated(ctx context.Context, id uuid.UUID, actor audit.Actor) (*application.Application, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id, actor, "validated", "", func(app *application.Application) error {
		app.MarkValidated(now)
		return nil
	})
}

func (s *ApplicationService) Start(ctx context.Context, id uuid.UUID, actor audit.Actor) (*application.Application, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id, actor, "started", "", func(app *application.Application) error {
		return app.Start(now)
	})
}

// Invalidate sends the application back to the applicant: every pending
// validation request is released to open in the same transaction, then
// one batch email goes out for all of them.
func (s *ApplicationService) Invalidate(ctx context.Context, id uuid.UUID, actor audit.Actor) (*application.Application, error) {
	now := time.Now().UTC()

	type result struct {
		app  *application.Application
		sent []*validationrequest.ValidationRequest
	}

	out, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (result, error) {
		app, err := s.apps.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return result{}, err
		}
		pending, err := s.requests.ListPending(txCtx, app.ID)
		if err != nil {
			return result{}, err
		}
		if err := app.Invalidate(now, len(pending)); err != nil {
			return result{}, err
		}
		for _, req := range pending {
			if err := req.MarkAsSent(now); err != nil {
				return result{}, err
			}
			if err := s.requests.Update(txCtx, req); err != nil {
				return result{}, err
			}
		}
		if err := s.apps.Update(txCtx, app); err != nil {
			return result{}, err
		}
		if err := recordActivity(txCtx, s.audits, app.ID, actor, "validation_requests_sent", "", ""); err != nil {
			return result{}, err
		}
		if err := recordActivity(txCtx, s.audits, app.ID, actor, "invalidated", "", ""); err != nil {
			return result{}, err
		}
		return result{app: app, sent: pending}, nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&events.ValidationRequestsSent{Application: out.app, Requests: out.sent})
	return out.app, nil
}

func (s *ApplicationService) SaveAssessment(ctx context.Context, id uuid.UUID, actor audit.Actor) (*application.Application, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id, actor, "", "", func(app *application.Application) error {
		return app.SaveAssessment(now)
	})
}

// RecordDecision stores the draft decision on the application and moves
// it to in_assessment, ready for submission.
func (s *ApplicationService) RecordDecision(ctx context.Context, id uuid.UUID, decision string, actor audit.Actor) (*application.Application, error) {
	if strings.TrimSpace(decision) == "" {
		return nil, serrors.NewFieldRequiredError("decision", "a decision is required")
	}
	now := time.Now().UTC()
	return s.transition(ctx, id, actor, "assessed", "", func(app *application.Application) error {
		d := decision
		app.Decision = &d
		return app.Assess(now)
	})
}

// Submit hands the assessed application to the reviewer and flags the
// assessor's latest recommendation as submitted.
func (s *ApplicationService) Submit(ctx context.Context, id uuid.UUID, actor audit.Actor) (*application.Application, error) {
	now := time.Now().UTC()
	return s.submitStep(ctx, id, actor, "submitted", true, func(app *application.Application) error {
		return app.Submit(now)
	})
}

// WithdrawRecommendation pulls a submitted recommendation back for
// rework, clearing its submitted flag.
func (s *ApplicationService) WithdrawRecommendation(ctx context.Context, id uuid.UUID, actor audit.Actor) (*application.Application, error) {
	now := time.Now().UTC()
	return s.submitStep(ctx, id, actor, "recommendation_withdrawn", false, func(app *application.Application) error {
		return app.WithdrawRecommendation(now)
	})
}

func (s *ApplicationService) submitStep(
	ctx context.Context,
	id uuid.UUID,
	actor audit.Actor,
	activityType string,
	submitted bool,
	fn func(app *application.Application) error,
) (*application.Application, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*application.Application, error) {
		app, err := s.apps.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(app); err != nil {
			return nil, err
		}
		if err := s.apps.Update(txCtx, app); err != nil {
			return nil, err
		}
		rec, err := s.apps.LatestRecommendation(txCtx, app.ID)
		if err != nil && !errors.Is(err, application.ErrNotFound) {
			return nil, err
		}
		if rec != nil {
			rec.Submitted = submitted
			if _, err := s.apps.SaveRecommendation(txCtx, rec); err != nil {
				return nil, err
			}
		}
		if err := recordActivity(txCtx, s.audits, app.ID, actor, activityType, "", ""); err != nil {
			return nil, err
		}
		return app, nil
	})
}

func (s *ApplicationService) RequestCorrection(ctx context.Context, id uuid.UUID, actor audit.Actor) (*application.Application, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id, actor, "correction_requested", "", func(app *application.Application) error {
		return app.RequestCorrection(now)
	})
}

// Determine publishes the decision and ends processing.
func (s *ApplicationService) Determine(ctx context.Context, id uuid.UUID, actor audit.Actor) (*application.Application, error) {
	now := time.Now().UTC()
	app, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*application.Application, error) {
		app, err := s.apps.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := app.Determine(now); err != nil {
			return nil, err
		}
		if err := s.apps.Update(txCtx, app); err != nil {
			return nil, err
		}
		comment := ""
		if app.Decision != nil {
			comment = *app.Decision
		}
		if err := recordActivity(txCtx, s.audits, app.ID, actor, "determined", "", comment); err != nil {
			return nil, err
		}
		return app, nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&events.ApplicationDetermined{Application: app})
	return app, nil
}

// Return, Withdraw and Close end processing from any in-progress
// status. The comment explains why and is required.

func (s *ApplicationService) Return(ctx context.Context, id uuid.UUID, comment string, actor audit.Actor) (*application.Application, error) {
	return s.closeOut(ctx, id, comment, actor, "returned", func(app *application.Application, c string, now time.Time) error {
		return app.Return(c, now)
	})
}

func (s *ApplicationService) Withdraw(ctx context.Context, id uuid.UUID, comment string, actor audit.Actor) (*application.Application, error) {
	return s.closeOut(ctx, id, comment, actor, "withdrawn", func(app *application.Application, c string, now time.Time) error {
		return app.Withdraw(c, now)
	})
}

func (s *ApplicationService) Close(ctx context.Context, id uuid.UUID, comment string, actor audit.Actor) (*application.Application, error) {
	return s.closeOut(ctx, id, comment, actor, "closed", func(app *application.Application, c string, now time.Time) error {
		return app.Close(c, now)
	})
}

func (s *ApplicationService) closeOut(
	ctx context.Context,
	id uuid.UUID,
	comment string,
	actor audit.Actor,
	activityType string,
	fn func(app *application.Application, comment string, now time.Time) error,
) (*application.Application, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, serrors.NewFieldRequiredError("comment", "a comment is required")
	}
	now := time.Now().UTC()
	return s.transition(ctx, id, actor, activityType, comment, func(app *application.Application) error {
		return fn(app, comment, now)
	})
}

type SaveRecommendationParams struct {
	ApplicationID uuid.UUID `validate:"required"`
	AssessorID    uuid.UUID `validate:"required"`
	Comment       string
}

// SaveRecommendation records the assessor's current recommendation text
// alongside the draft assessment.
func (s *ApplicationService) SaveRecommendation(ctx context.Context, params SaveRecommendationParams, actor audit.Actor) (*application.Recommendation, error) {
	if err := s.validate.Struct(&params); err != nil {
		return nil, mapValidatorError(err)
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*application.Recommendation, error) {
		rec := &application.Recommendation{
			ApplicationID: params.ApplicationID,
			AssessorID:    params.AssessorID,
			Comment:       params.Comment,
		}
		return s.apps.SaveRecommendation(txCtx, rec)
	})
}

func (s *ApplicationService) LatestRecommendation(ctx context.Context, applicationID uuid.UUID) (*application.Recommendation, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*application.Recommendation, error) {
		return s.apps.LatestRecommendation(txCtx, applicationID)
	})
}
