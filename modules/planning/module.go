package planning

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openplanning/caseflow/modules/planning/handlers"
	"github.com/openplanning/caseflow/modules/planning/infrastructure/mail"
	"github.com/openplanning/caseflow/modules/planning/infrastructure/persistence"
	"github.com/openplanning/caseflow/modules/planning/services"
	"github.com/openplanning/caseflow/pkg/application"
	"github.com/openplanning/caseflow/pkg/businessdays"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&persistence.MigrationFiles)

	appRepo := persistence.NewApplicationRepository()
	requestRepo := persistence.NewValidationRequestRepository()
	auditRepo := persistence.NewAuditRepository()
	calendar := businessdays.EnglandWales()
	metrics := services.NewEngineMetrics(prometheus.DefaultRegisterer)

	app.RegisterServices(
		services.NewApplicationService(appRepo, requestRepo, auditRepo, app.EventPublisher()),
		services.NewValidationRequestService(requestRepo, appRepo, auditRepo, calendar, app.EventPublisher(), metrics),
		services.NewAutoCloseService(
			requestRepo,
			appRepo,
			auditRepo,
			calendar,
			services.NewLogErrorReporter(app.Logger()),
			metrics,
			app.Logger(),
		),
	)

	handlers.RegisterNotificationHandler(app, mail.NewLogNotifier(app.Logger()))
	return nil
}

func (m *Module) Name() string {
	return "planning"
}
