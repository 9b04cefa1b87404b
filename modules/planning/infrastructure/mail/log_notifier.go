package mail

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/openplanning/caseflow/modules/planning/domain/application"
	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
	"github.com/openplanning/caseflow/modules/planning/services"
)

// LogNotifier writes notification intents to the log instead of
// sending mail. Stands in until an SMTP or provider-backed notifier is
// wired for the deployment.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) services.Notifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendValidationRequestEmail(_ context.Context, app *application.Application, requests []*validationrequest.ValidationRequest) error {
	kinds := make([]string, 0, len(requests))
	for _, req := range requests {
		kinds = append(kinds, string(req.Kind))
	}
	n.logger.WithFields(logrus.Fields{
		"application_id": app.ID,
		"reference":      app.Reference,
		"kinds":          kinds,
	}).Info("validation request email")
	return nil
}

func (n *LogNotifier) SendPostValidationRequestEmail(_ context.Context, app *application.Application, request *validationrequest.ValidationRequest) error {
	n.logger.WithFields(logrus.Fields{
		"application_id": app.ID,
		"reference":      app.Reference,
		"kind":           request.Kind,
		"sequence":       request.Sequence,
	}).Info("post-validation request email")
	return nil
}

func (n *LogNotifier) SendCancelledRequestEmail(_ context.Context, app *application.Application, request *validationrequest.ValidationRequest) error {
	n.logger.WithFields(logrus.Fields{
		"application_id": app.ID,
		"reference":      app.Reference,
		"kind":           request.Kind,
		"sequence":       request.Sequence,
	}).Info("cancelled request email")
	return nil
}
