package services_test

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/openplanning/caseflow/modules/planning/domain/application"
	"github.com/openplanning/caseflow/modules/planning/domain/audit"
	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
	"github.com/openplanning/caseflow/modules/planning/services"
	"github.com/openplanning/caseflow/pkg/businessdays"
	"github.com/openplanning/caseflow/pkg/composables"
	"github.com/openplanning/caseflow/pkg/eventbus"
)

// stubTx satisfies pgx.Tx so the transaction composable reuses it from
// the context instead of opening a real one. None of its methods are
// called: the fakes below never touch the database.
type stubTx struct {
	pgx.Tx
}

func testContext(tenantID uuid.UUID) context.Context {
	ctx := composables.WithTenantID(context.Background(), tenantID)
	return composables.WithTx(ctx, stubTx{})
}

type fakeApplicationRepo struct {
	apps map[uuid.UUID]*application.Application
	recs []*application.Recommendation

	updateErr error
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: map[uuid.UUID]*application.Application{}}
}

func (r *fakeApplicationRepo) Create(_ context.Context, app *application.Application) (*application.Application, error) {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	r.apps[app.ID] = app
	return app, nil
}

func (r *fakeApplicationRepo) GetByID(_ context.Context, id uuid.UUID) (*application.Application, error) {
	app, ok := r.apps[id]
	if !ok {
		return nil, application.ErrNotFound
	}
	return app, nil
}

func (r *fakeApplicationRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeApplicationRepo) Update(_ context.Context, app *application.Application) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.apps[app.ID]; !ok {
		return application.ErrNotFound
	}
	app.UpdatedAt = time.Now().UTC()
	r.apps[app.ID] = app
	return nil
}

func (r *fakeApplicationRepo) SaveRecommendation(_ context.Context, rec *application.Recommendation) (*application.Recommendation, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
		rec.CreatedAt = time.Now().UTC()
		r.recs = append(r.recs, rec)
	}
	rec.UpdatedAt = time.Now().UTC()
	for i, existing := range r.recs {
		if existing.ID == rec.ID {
			r.recs[i] = rec
		}
	}
	return rec, nil
}

func (r *fakeApplicationRepo) LatestRecommendation(_ context.Context, applicationID uuid.UUID) (*application.Recommendation, error) {
	var latest *application.Recommendation
	for _, rec := range r.recs {
		if rec.ApplicationID != applicationID {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, application.ErrNotFound
	}
	return latest, nil
}

type fakeRequestRepo struct {
	requests  map[uuid.UUID]*validationrequest.ValidationRequest
	envelopes map[uuid.UUID]*validationrequest.Envelope

	updateErrFor map[uuid.UUID]error
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		requests:     map[uuid.UUID]*validationrequest.ValidationRequest{},
		envelopes:    map[uuid.UUID]*validationrequest.Envelope{},
		updateErrFor: map[uuid.UUID]error{},
	}
}

func (r *fakeRequestRepo) Create(_ context.Context, req *validationrequest.ValidationRequest) (*validationrequest.ValidationRequest, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.UpdatedAt = req.CreatedAt
	r.requests[req.ID] = req
	r.envelopes[req.ID] = &validationrequest.Envelope{
		ID:            uuid.New(),
		TenantID:      req.TenantID,
		ApplicationID: req.ApplicationID,
		Kind:          req.Kind,
		RequestID:     req.ID,
		CreatedAt:     req.CreatedAt,
	}
	return req, nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*validationrequest.ValidationRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, validationrequest.ErrNotFound
	}
	return req, nil
}

func (r *fakeRequestRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*validationrequest.ValidationRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeRequestRepo) Update(_ context.Context, req *validationrequest.ValidationRequest) error {
	if err := r.updateErrFor[req.ID]; err != nil {
		return err
	}
	if _, ok := r.requests[req.ID]; !ok {
		return validationrequest.ErrNotFound
	}
	req.UpdatedAt = time.Now().UTC()
	r.requests[req.ID] = req
	return nil
}

func (r *fakeRequestRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.requests[id]; !ok {
		return validationrequest.ErrNotFound
	}
	delete(r.requests, id)
	delete(r.envelopes, id)
	return nil
}

func (r *fakeRequestRepo) MaxSequence(_ context.Context, applicationID uuid.UUID, kind validationrequest.Kind) (int, error) {
	max := 0
	for _, req := range r.requests {
		if req.ApplicationID == applicationID && req.Kind == kind && req.Sequence > max {
			max = req.Sequence
		}
	}
	return max, nil
}

func (r *fakeRequestRepo) ListByApplication(_ context.Context, applicationID uuid.UUID, params *validationrequest.FindParams) ([]*validationrequest.ValidationRequest, error) {
	var results []*validationrequest.ValidationRequest
	for _, req := range r.requests {
		if req.ApplicationID != applicationID {
			continue
		}
		if params != nil && len(params.States) > 0 && !containsState(params.States, req.State) {
			continue
		}
		if params != nil && len(params.Kinds) > 0 && !containsKind(params.Kinds, req.Kind) {
			continue
		}
		results = append(results, req)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

func (r *fakeRequestRepo) ListPending(ctx context.Context, applicationID uuid.UUID) ([]*validationrequest.ValidationRequest, error) {
	return r.ListByApplication(ctx, applicationID, &validationrequest.FindParams{
		States: []validationrequest.State{validationrequest.StatePending},
	})
}

func (r *fakeRequestRepo) ListOpenCreatedBefore(_ context.Context, cutoff time.Time) ([]*validationrequest.ValidationRequest, error) {
	var results []*validationrequest.ValidationRequest
	for _, req := range r.requests {
		if req.State == validationrequest.StateOpen && !req.CreatedAt.After(cutoff) {
			results = append(results, req)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

func (r *fakeRequestRepo) LatestClosedOfKind(_ context.Context, applicationID uuid.UUID, kind validationrequest.Kind) (*validationrequest.ValidationRequest, error) {
	var latest *validationrequest.ValidationRequest
	var latestClosedAt time.Time
	for _, req := range r.requests {
		if req.ApplicationID != applicationID || req.Kind != kind || req.State != validationrequest.StateClosed {
			continue
		}
		env, ok := r.envelopes[req.ID]
		if !ok || env.ClosedAt == nil {
			continue
		}
		if latest == nil || env.ClosedAt.After(latestClosedAt) {
			latest = req
			latestClosedAt = *env.ClosedAt
		}
	}
	if latest == nil {
		return nil, validationrequest.ErrNotFound
	}
	return latest, nil
}

func (r *fakeRequestRepo) GetEnvelope(_ context.Context, requestID uuid.UUID) (*validationrequest.Envelope, error) {
	env, ok := r.envelopes[requestID]
	if !ok {
		return nil, validationrequest.ErrNotFound
	}
	return env, nil
}

func (r *fakeRequestRepo) UpdateEnvelope(_ context.Context, env *validationrequest.Envelope) error {
	for id, existing := range r.envelopes {
		if existing.ID == env.ID {
			r.envelopes[id] = env
			return nil
		}
	}
	return validationrequest.ErrNotFound
}

func containsState(states []validationrequest.State, s validationrequest.State) bool {
	for _, state := range states {
		if state == s {
			return true
		}
	}
	return false
}

func containsKind(kinds []validationrequest.Kind, k validationrequest.Kind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

type fakeAuditRepo struct {
	entries []*audit.Entry
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *audit.Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListByApplication(_ context.Context, applicationID uuid.UUID, params *audit.FindParams) ([]*audit.Entry, error) {
	var results []*audit.Entry
	for _, entry := range r.entries {
		if entry.ApplicationID != applicationID {
			continue
		}
		if params != nil && params.ActivityType != "" && entry.ActivityType != params.ActivityType {
			continue
		}
		results = append(results, entry)
	}
	return results, nil
}

func (r *fakeAuditRepo) lastActivityType() string {
	if len(r.entries) == 0 {
		return ""
	}
	return r.entries[len(r.entries)-1].ActivityType
}

type engineFixture struct {
	ctx      context.Context
	tenantID uuid.UUID

	apps     *fakeApplicationRepo
	requests *fakeRequestRepo
	audits   *fakeAuditRepo
	bus      eventbus.EventBus
	calendar *businessdays.Calendar

	appService     *services.ApplicationService
	requestService *services.ValidationRequestService
	sweepService   *services.AutoCloseService
}

func newEngineFixture() *engineFixture {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	f := &engineFixture{
		tenantID: uuid.New(),
		apps:     newFakeApplicationRepo(),
		requests: newFakeRequestRepo(),
		audits:   &fakeAuditRepo{},
		bus:      eventbus.NewEventPublisher(logger),
		calendar: businessdays.New(),
	}
	f.ctx = testContext(f.tenantID)

	metrics := services.NewEngineMetrics(prometheus.NewRegistry())
	f.appService = services.NewApplicationService(f.apps, f.requests, f.audits, f.bus)
	f.requestService = services.NewValidationRequestService(f.requests, f.apps, f.audits, f.calendar, f.bus, metrics)
	f.sweepService = services.NewAutoCloseService(
		f.requests, f.apps, f.audits, f.calendar,
		services.NewLogErrorReporter(logger), metrics, logger,
	)
	return f
}

func (f *engineFixture) createApplication(reference string) *application.Application {
	app := application.New(f.tenantID, reference, "Single storey rear extension")
	created, _ := f.apps.Create(f.ctx, app)
	return created
}
