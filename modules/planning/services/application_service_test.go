package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openplanning/caseflow/modules/planning/domain/application"
	"github.com/openplanning/caseflow/modules/planning/domain/audit"
	"github.com/openplanning/caseflow/modules/planning/domain/events"
	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
	"github.com/openplanning/caseflow/modules/planning/services"
	"github.com/openplanning/caseflow/pkg/serrors"
)

func TestApplicationService_Create(t *testing.T) {
	f := newEngineFixture()

	app, err := f.appService.Create(f.ctx, services.CreateApplicationParams{
		Reference:   "APP-2025-030",
		Description: "Dormer loft conversion",
	})
	require.NoError(t, err)
	require.Equal(t, application.StatusNotStarted, app.Status)
	require.Equal(t, f.tenantID, app.TenantID)
}

func TestApplicationService_Create_RequiresReference(t *testing.T) {
	f := newEngineFixture()

	_, err := f.appService.Create(f.ctx, services.CreateApplicationParams{
		Description: "Dormer loft conversion",
	})

	var fieldErr *serrors.FieldError
	require.ErrorAs(t, err, &fieldErr)
}

func TestApplicationService_Invalidate_SendsPendingRequests(t *testing.T) {
	f := newEngineFixture()
	app := f.createApplication("APP-2025-031")
	actor := audit.User(uuid.New())

	first, err := f.requestService.Create(f.ctx, services.CreateValidationRequestParams{
		ApplicationID: app.ID,
		Kind:          validationrequest.KindAdditionalDocument,
		Payload:       validationrequest.AdditionalDocumentPayload{DocumentRequestType: "floor_plan"},
		Actor:         actor,
	})
	require.NoError(t, err)
	second, err := f.requestService.Create(f.ctx, services.CreateValidationRequestParams{
		ApplicationID: app.ID,
		Kind:          validationrequest.KindFeeChange,
		Payload:       validationrequest.FeeChangePayload{Reason: "underpaid"},
		Actor:         actor,
	})
	require.NoError(t, err)

	var published *events.ValidationRequestsSent
	f.bus.Subscribe(func(event *events.ValidationRequestsSent) {
		published = event
	})

	invalidated, err := f.appService.Invalidate(f.ctx, app.ID, actor)
	require.NoError(t, err)
	require.Equal(t, application.StatusInvalidated, invalidated.Status)
	require.NotNil(t, invalidated.InvalidatedAt)

	require.Equal(t, validationrequest.StateOpen, first.State)
	require.Equal(t, validationrequest.StateOpen, second.State)
	require.NotNil(t, first.NotifiedAt)

	require.NotNil(t, published)
	require.Len(t, published.Requests, 2)

	entries, err := f.audits.ListByApplication(f.ctx, app.ID, &audit.FindParams{ActivityType: "validation_requests_sent"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "invalidated", f.audits.lastActivityType())
}

func TestApplicationService_Invalidate_RequiresPendingRequests(t *testing.T) {
	f := newEngineFixture()
	app := f.createApplication("APP-2025-032")

	_, err := f.appService.Invalidate(f.ctx, app.ID, audit.User(uuid.New()))

	var invalid *application.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, application.StatusNotStarted, app.Status)
}

func TestApplicationService_AssessmentFlow(t *testing.T) {
	f := newEngineFixture()
	app := f.createApplication("APP-2025-033")
	actor := audit.User(uuid.New())

	_, err := f.appService.MarkValidated(f.ctx, app.ID, actor)
	require.NoError(t, err)
	_, err = f.appService.Start(f.ctx, app.ID, actor)
	require.NoError(t, err)
	_, err = f.appService.SaveAssessment(f.ctx, app.ID, actor)
	require.NoError(t, err)
	require.Equal(t, application.StatusAssessmentInProgress, app.Status)

	_, err = f.appService.RecordDecision(f.ctx, app.ID, "granted", actor)
	require.NoError(t, err)
	require.Equal(t, application.StatusInAssessment, app.Status)

	_, err = f.appService.Submit(f.ctx, app.ID, actor)
	require.NoError(t, err)
	require.Equal(t, application.StatusAwaitingDetermination, app.Status)
}

func TestApplicationService_RecordDecision_RequiresText(t *testing.T) {
	f := newEngineFixture()
	app := f.createApplication("APP-2025-034")

	_, err := f.appService.RecordDecision(f.ctx, app.ID, "  ", audit.User(uuid.New()))

	var fieldErr *serrors.FieldError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "decision", fieldErr.Field)
}

func TestApplicationService_SubmitTogglesRecommendation(t *testing.T) {
	f := newEngineFixture()
	app := f.createApplication("APP-2025-035")
	actor := audit.User(uuid.New())
	assessorID := uuid.New()

	_, err := f.appService.MarkValidated(f.ctx, app.ID, actor)
	require.NoError(t, err)
	_, err = f.appService.Start(f.ctx, app.ID, actor)
	require.NoError(t, err)
	_, err = f.appService.RecordDecision(f.ctx, app.ID, "granted", actor)
	require.NoError(t, err)

	rec, err := f.appService.SaveRecommendation(f.ctx, services.SaveRecommendationParams{
		ApplicationID: app.ID,
		AssessorID:    assessorID,
		Comment:       "complies with local plan",
	}, actor)
	require.NoError(t, err)
	require.False(t, rec.Submitted)

	_, err = f.appService.Submit(f.ctx, app.ID, actor)
	require.NoError(t, err)
	require.True(t, rec.Submitted)

	_, err = f.appService.WithdrawRecommendation(f.ctx, app.ID, actor)
	require.NoError(t, err)
	require.False(t, rec.Submitted)
	require.Equal(t, application.StatusInAssessment, app.Status)
}

func TestApplicationService_Determine(t *testing.T) {
	f := newEngineFixture()
	app := f.createApplication("APP-2025-036")
	actor := audit.User(uuid.New())

	_, err := f.appService.MarkValidated(f.ctx, app.ID, actor)
	require.NoError(t, err)
	_, err = f.appService.Start(f.ctx, app.ID, actor)
	require.NoError(t, err)
	_, err = f.appService.RecordDecision(f.ctx, app.ID, "refused", actor)
	require.NoError(t, err)
	_, err = f.appService.Submit(f.ctx, app.ID, actor)
	require.NoError(t, err)

	var published *events.ApplicationDetermined
	f.bus.Subscribe(func(event *events.ApplicationDetermined) {
		published = event
	})

	determined, err := f.appService.Determine(f.ctx, app.ID, actor)
	require.NoError(t, err)
	require.Equal(t, application.StatusDetermined, determined.Status)
	require.NotNil(t, published)

	last := f.audits.entries[len(f.audits.entries)-1]
	require.Equal(t, "determined", last.ActivityType)
	require.NotNil(t, last.Comment)
	require.Equal(t, "refused", *last.Comment)
}

func TestApplicationService_CloseOutRequiresComment(t *testing.T) {
	f := newEngineFixture()
	app := f.createApplication("APP-2025-037")
	actor := audit.User(uuid.New())

	_, err := f.appService.Withdraw(f.ctx, app.ID, "  ", actor)
	var fieldErr *serrors.FieldError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "comment", fieldErr.Field)

	withdrawn, err := f.appService.Withdraw(f.ctx, app.ID, "applicant withdrew", actor)
	require.NoError(t, err)
	require.Equal(t, application.StatusWithdrawn, withdrawn.Status)
	require.Equal(t, "withdrawn", f.audits.lastActivityType())
}

func TestApplicationService_ReturnFromAssessment(t *testing.T) {
	f := newEngineFixture()
	app := f.createApplication("APP-2025-038")
	actor := audit.User(uuid.New())

	_, err := f.appService.MarkValidated(f.ctx, app.ID, actor)
	require.NoError(t, err)
	_, err = f.appService.Start(f.ctx, app.ID, actor)
	require.NoError(t, err)

	returned, err := f.appService.Return(f.ctx, app.ID, "incomplete submission", actor)
	require.NoError(t, err)
	require.Equal(t, application.StatusReturned, returned.Status)
	require.NotNil(t, returned.ClosedOrCancellationComment)
	require.Equal(t, "incomplete submission", *returned.ClosedOrCancellationComment)

	// Terminal applications reject further transitions.
	_, err = f.appService.Start(f.ctx, app.ID, actor)
	var invalid *application.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}
