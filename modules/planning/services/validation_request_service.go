package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/openplanning/caseflow/modules/planning/domain/application"
	"github.com/openplanning/caseflow/modules/planning/domain/audit"
	"github.com/openplanning/caseflow/modules/planning/domain/events"
	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
	"github.com/openplanning/caseflow/pkg/businessdays"
	"github.com/openplanning/caseflow/pkg/composables"
	"github.com/openplanning/caseflow/pkg/eventbus"
	"github.com/openplanning/caseflow/pkg/serrors"
)

// ValidationRequestService is the engine shared by all request kinds:
// guarded creation, the pending/open/closed/cancelled workflow, and the
// derived-flag bookkeeping on the owning application. Every transition
// runs in one transaction over the request, its envelope, the
// application and the audit write; notifications ride the event bus
// after commit.
type ValidationRequestService struct {
	repo      validationrequest.Repository
	apps      application.Repository
	audits    audit.Repository
	calendar  *businessdays.Calendar
	publisher eventbus.EventBus
	metrics   *EngineMetrics
	validate  *validator.Validate
}

func NewValidationRequestService(
	repo validationrequest.Repository,
	apps application.Repository,
	audits audit.Repository,
	calendar *businessdays.Calendar,
	publisher eventbus.EventBus,
	metrics *EngineMetrics,
) *ValidationRequestService {
	return &ValidationRequestService{
		repo:      repo,
		apps:      apps,
		audits:    audits,
		calendar:  calendar,
		publisher: publisher,
		metrics:   metrics,
		validate:  validator.New(),
	}
}

type CreateValidationRequestParams struct {
	ApplicationID uuid.UUID              `validate:"required"`
	Kind          validationrequest.Kind `validate:"required"`
	Payload       validationrequest.Payload
	Actor         audit.Actor
}

func (s *ValidationRequestService) Create(ctx context.Context, params CreateValidationRequestParams) (*validationrequest.ValidationRequest, error) {
	if err := s.validate.Struct(&params); err != nil {
		return nil, mapValidatorError(err)
	}
	if !params.Kind.Valid() {
		return nil, serrors.NewFieldError("KIND_UNKNOWN", "kind", "unknown validation request kind")
	}

	now := time.Now().UTC()
	spec := params.Kind.Spec()

	type result struct {
		req *validationrequest.ValidationRequest
		app *application.Application
	}

	out, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (result, error) {
		app, err := s.apps.GetByIDForUpdate(txCtx, params.ApplicationID)
		if err != nil {
			return result{}, err
		}

		if app.Status.Terminal() {
			return result{}, &validationrequest.NotCreatableError{
				Kind:   params.Kind,
				Status: app.Status,
				Reason: "the application is no longer being processed",
			}
		}
		if spec.PreValidationOnly && app.ValidationComplete() && !app.Status.Revalidatable() {
			return result{}, &validationrequest.NotCreatableError{
				Kind:   params.Kind,
				Status: app.Status,
				Reason: "this request kind can only be raised before validation",
			}
		}

		highWater, err := s.repo.MaxSequence(txCtx, app.ID, params.Kind)
		if err != nil {
			return result{}, err
		}

		req := &validationrequest.ValidationRequest{
			ApplicationID:  app.ID,
			Kind:           params.Kind,
			Sequence:       highWater + 1,
			State:          validationrequest.StatePending,
			PostValidation: app.ValidationComplete(),
			UserID:         params.Actor.UserID,
			Payload:        params.Payload,
		}
		created, err := s.repo.Create(txCtx, req)
		if err != nil {
			return result{}, err
		}

		if spec.MarkInvalid != nil {
			spec.MarkInvalid(app)
		}

		// Requests raised after validation skip the deferred batch
		// notify and go straight to open.
		if app.ValidationComplete() {
			if err := created.MarkAsSent(now); err != nil {
				return result{}, err
			}
			if err := s.repo.Update(txCtx, created); err != nil {
				return result{}, err
			}
		}

		if err := s.apps.Update(txCtx, app); err != nil {
			return result{}, err
		}

		activityType := params.Kind.ActivityType("sent")
		switch {
		case app.Status == application.StatusNotStarted:
			activityType = params.Kind.ActivityType("added")
		case created.PostValidation:
			activityType = params.Kind.ActivityType("sent_post_validation")
		}
		if err := recordActivity(txCtx, s.audits, app.ID, params.Actor, activityType, sequenceInfo(created.Sequence), ""); err != nil {
			return result{}, err
		}

		return result{req: created, app: app}, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RequestsCreated.WithLabelValues(string(params.Kind)).Inc()
	if out.req.PostValidation && out.req.State == validationrequest.StateOpen {
		s.publisher.Publish(&events.PostValidationRequestSent{Application: out.app, Request: out.req})
	}
	return out.req, nil
}

// MarkAsSent transitions a pending request to open and stamps the
// notification time. Used standalone; Invalidate on the application
// service drives the batched variant.
func (s *ValidationRequestService) MarkAsSent(ctx context.Context, id uuid.UUID, actor audit.Actor) (*validationrequest.ValidationRequest, error) {
	now := time.Now().UTC()
	req, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*validationrequest.ValidationRequest, error) {
		req, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := req.MarkAsSent(now); err != nil {
			return nil, err
		}
		if err := s.repo.Update(txCtx, req); err != nil {
			return nil, err
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Transitions.WithLabelValues(string(validationrequest.EventMarkAsSent)).Inc()
	return req, nil
}

// Cancel voids a pending or open request, resets any invalidation flag
// the request had set on the application, and audits the reason. Any
// persistence or transition failure surfaces wrapped in
// RecordCancelError; a blank reason is a plain field error.
func (s *ValidationRequestService) Cancel(ctx context.Context, id uuid.UUID, reason string, actor audit.Actor) (*validationrequest.ValidationRequest, error) {
	now := time.Now().UTC()

	type result struct {
		req *validationrequest.ValidationRequest
		app *application.Application
	}

	out, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (result, error) {
		req, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return result{}, &validationrequest.RecordCancelError{Cause: err}
		}
		app, err := s.apps.GetByIDForUpdate(txCtx, req.ApplicationID)
		if err != nil {
			return result{}, &validationrequest.RecordCancelError{Cause: err}
		}

		if err := req.Cancel(reason, now); err != nil {
			var fieldErr *serrors.FieldError
			if errors.As(err, &fieldErr) {
				return result{}, err
			}
			return result{}, &validationrequest.RecordCancelError{Cause: err}
		}

		spec := req.Kind.Spec()
		if spec.ResetValidity != nil {
			spec.ResetValidity(app)
		}

		if err := s.repo.Update(txCtx, req); err != nil {
			return result{}, &validationrequest.RecordCancelError{Cause: err}
		}
		if err := s.apps.Update(txCtx, app); err != nil {
			return result{}, &validationrequest.RecordCancelError{Cause: err}
		}

		activityType := req.Kind.ActivityType("cancelled")
		if req.PostValidation {
			activityType = req.Kind.ActivityType("cancelled_post_validation")
		}
		if err := recordActivity(txCtx, s.audits, app.ID, actor, activityType, sequenceInfo(req.Sequence), cancellationComment(*req.CancelReason)); err != nil {
			return result{}, &validationrequest.RecordCancelError{Cause: err}
		}

		return result{req: req, app: app}, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transitions.WithLabelValues(string(validationrequest.EventCancel)).Inc()
	s.publisher.Publish(&events.ValidationRequestCancelled{Application: out.app, Request: out.req})
	return out.req, nil
}

// Close records an attended closure: open -> closed, stamping the
// envelope and, for counter kinds closed pre-validation, marking the
// application as carrying an outstanding update.
func (s *ValidationRequestService) Close(ctx context.Context, id uuid.UUID, actor audit.Actor) (*validationrequest.ValidationRequest, error) {
	now := time.Now().UTC()
	req, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*validationrequest.ValidationRequest, error) {
		req, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := req.Close(); err != nil {
			return nil, err
		}
		if err := s.repo.Update(txCtx, req); err != nil {
			return nil, err
		}
		if err := s.closeEnvelope(txCtx, req, now); err != nil {
			return nil, err
		}
		if err := recordActivity(txCtx, s.audits, req.ApplicationID, actor, req.Kind.ActivityType("closed"), sequenceInfo(req.Sequence), ""); err != nil {
			return nil, err
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Transitions.WithLabelValues(string(validationrequest.EventClose)).Inc()
	return req, nil
}

func (s *ValidationRequestService) closeEnvelope(ctx context.Context, req *validationrequest.ValidationRequest, now time.Time) error {
	env, err := s.repo.GetEnvelope(ctx, req.ID)
	if err != nil {
		return err
	}
	if req.Kind.Spec().UpdatesCounter && !req.PostValidation {
		env.UpdateCounter = true
	}
	t := now
	env.ClosedAt = &t
	return s.repo.UpdateEnvelope(ctx, env)
}

// Destroy removes a request that has not yet been sent, together with
// its envelope, and releases the validity flag it had claimed.
func (s *ValidationRequestService) Destroy(ctx context.Context, id uuid.UUID, actor audit.Actor) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		req, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !req.Destroyable() {
			return &validationrequest.NotDestroyableError{Kind: req.Kind, State: req.State}
		}
		app, err := s.apps.GetByIDForUpdate(txCtx, req.ApplicationID)
		if err != nil {
			return err
		}
		spec := req.Kind.Spec()
		if spec.ResetValidity != nil {
			spec.ResetValidity(app)
		}
		if err := s.apps.Update(txCtx, app); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, req.ID)
	})
}

func (s *ValidationRequestService) GetByID(ctx context.Context, id uuid.UUID) (*validationrequest.ValidationRequest, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*validationrequest.ValidationRequest, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *ValidationRequestService) ListByApplication(ctx context.Context, applicationID uuid.UUID, params *validationrequest.FindParams) ([]*validationrequest.ValidationRequest, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*validationrequest.ValidationRequest, error) {
		return s.repo.ListByApplication(txCtx, applicationID, params)
	})
}

// ActiveClosedFeeItem returns the most recent closed fee-change request
// for the application, or validationrequest.ErrNotFound.
func (s *ValidationRequestService) ActiveClosedFeeItem(ctx context.Context, applicationID uuid.UUID) (*validationrequest.ValidationRequest, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*validationrequest.ValidationRequest, error) {
		return s.repo.LatestClosedOfKind(txCtx, applicationID, validationrequest.KindFeeChange)
	})
}

// ResponseDue, DaysUntilResponseDue and Overdue expose the SLA math
// with the service's configured calendar.
func (s *ValidationRequestService) ResponseDue(req *validationrequest.ValidationRequest) time.Time {
	return req.ResponseDue(s.calendar)
}

func (s *ValidationRequestService) DaysUntilResponseDue(req *validationrequest.ValidationRequest) int {
	return req.DaysUntilResponseDue(s.calendar, time.Now().UTC())
}

func (s *ValidationRequestService) Overdue(req *validationrequest.ValidationRequest) bool {
	return req.Overdue(s.calendar, time.Now().UTC())
}

func mapValidatorError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return serrors.NewFieldRequiredError(first.Field(), "this field is required")
	}
	return err
}
