package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/openplanning/caseflow/modules/planning/domain/application"
	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
)

// Notifier delivers applicant-facing email. Implementations live in
// infrastructure; the engine treats delivery as fire-and-forget and
// never lets a send failure unwind a committed transition.
type Notifier interface {
	SendValidationRequestEmail(ctx context.Context, app *application.Application, requests []*validationrequest.ValidationRequest) error
	SendPostValidationRequestEmail(ctx context.Context, app *application.Application, request *validationrequest.ValidationRequest) error
	SendCancelledRequestEmail(ctx context.Context, app *application.Application, request *validationrequest.ValidationRequest) error
}

// ErrorReporter receives failures from unattended maintenance work
// (the auto-close sweep), where errors are reported rather than raised.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

type logErrorReporter struct {
	logger *logrus.Logger
}

func NewLogErrorReporter(logger *logrus.Logger) ErrorReporter {
	return &logErrorReporter{logger: logger}
}

func (r *logErrorReporter) Report(_ context.Context, err error) {
	r.logger.WithError(err).Error("auto-close sweep failure")
}
