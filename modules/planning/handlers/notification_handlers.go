package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/openplanning/caseflow/modules/planning/domain/events"
	"github.com/openplanning/caseflow/modules/planning/services"
	"github.com/openplanning/caseflow/pkg/application"
)

// NotificationHandler bridges domain events to applicant email.
// Delivery failures are logged and dropped; the transitions that raised
// the events have already committed.
type NotificationHandler struct {
	notifier services.Notifier
	logger   *logrus.Logger
}

func RegisterNotificationHandler(app application.Application, notifier services.Notifier) *NotificationHandler {
	handler := &NotificationHandler{
		notifier: notifier,
		logger:   app.Logger(),
	}
	app.EventPublisher().Subscribe(handler.onValidationRequestsSent)
	app.EventPublisher().Subscribe(handler.onPostValidationRequestSent)
	app.EventPublisher().Subscribe(handler.onValidationRequestCancelled)
	return handler
}

func (h *NotificationHandler) onValidationRequestsSent(event *events.ValidationRequestsSent) {
	if len(event.Requests) == 0 {
		return
	}
	if err := h.notifier.SendValidationRequestEmail(context.Background(), event.Application, event.Requests); err != nil {
		h.logger.WithError(err).WithField("application_id", event.Application.ID).
			Error("failed to send validation request email")
	}
}

func (h *NotificationHandler) onPostValidationRequestSent(event *events.PostValidationRequestSent) {
	if err := h.notifier.SendPostValidationRequestEmail(context.Background(), event.Application, event.Request); err != nil {
		h.logger.WithError(err).WithField("request_id", event.Request.ID).
			Error("failed to send post-validation request email")
	}
}

func (h *NotificationHandler) onValidationRequestCancelled(event *events.ValidationRequestCancelled) {
	if err := h.notifier.SendCancelledRequestEmail(context.Background(), event.Application, event.Request); err != nil {
		h.logger.WithError(err).WithField("request_id", event.Request.ID).
			Error("failed to send cancellation email")
	}
}
