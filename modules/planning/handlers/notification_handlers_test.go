package handlers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/openplanning/caseflow/modules/planning/domain/application"
	"github.com/openplanning/caseflow/modules/planning/domain/events"
	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
	"github.com/openplanning/caseflow/modules/planning/handlers"
	app "github.com/openplanning/caseflow/pkg/application"
	"github.com/openplanning/caseflow/pkg/eventbus"
)

type recordingNotifier struct {
	batches   int
	singles   int
	cancelled int
	err       error
}

func (n *recordingNotifier) SendValidationRequestEmail(_ context.Context, _ *application.Application, requests []*validationrequest.ValidationRequest) error {
	n.batches += len(requests)
	return n.err
}

func (n *recordingNotifier) SendPostValidationRequestEmail(_ context.Context, _ *application.Application, _ *validationrequest.ValidationRequest) error {
	n.singles++
	return n.err
}

func (n *recordingNotifier) SendCancelledRequestEmail(_ context.Context, _ *application.Application, _ *validationrequest.ValidationRequest) error {
	n.cancelled++
	return n.err
}

func newTestApplication(t *testing.T) (app.Application, *logrus.Logger) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return app.New(&app.ApplicationOptions{
		Pool:     nil,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	}), logger
}

func TestNotificationHandler_DeliversOnEvents(t *testing.T) {
	platform, _ := newTestApplication(t)
	notifier := &recordingNotifier{}
	handlers.RegisterNotificationHandler(platform, notifier)

	planningApp := application.New(uuid.New(), "APP-2025-050", "Porch extension")
	req := &validationrequest.ValidationRequest{ID: uuid.New(), Kind: validationrequest.KindOtherChange}

	platform.EventPublisher().Publish(&events.ValidationRequestsSent{
		Application: planningApp,
		Requests:    []*validationrequest.ValidationRequest{req, req},
	})
	platform.EventPublisher().Publish(&events.PostValidationRequestSent{Application: planningApp, Request: req})
	platform.EventPublisher().Publish(&events.ValidationRequestCancelled{Application: planningApp, Request: req})

	require.Equal(t, 2, notifier.batches)
	require.Equal(t, 1, notifier.singles)
	require.Equal(t, 1, notifier.cancelled)
}

func TestNotificationHandler_DeliveryFailureIsSwallowed(t *testing.T) {
	platform, _ := newTestApplication(t)
	notifier := &recordingNotifier{err: errors.New("smtp unavailable")}
	handlers.RegisterNotificationHandler(platform, notifier)

	planningApp := application.New(uuid.New(), "APP-2025-051", "Porch extension")
	req := &validationrequest.ValidationRequest{ID: uuid.New(), Kind: validationrequest.KindOtherChange}

	require.NotPanics(t, func() {
		platform.EventPublisher().Publish(&events.PostValidationRequestSent{Application: planningApp, Request: req})
	})
	require.Equal(t, 1, notifier.singles)
}

func TestNotificationHandler_EmptyBatchIgnored(t *testing.T) {
	platform, _ := newTestApplication(t)
	notifier := &recordingNotifier{}
	handlers.RegisterNotificationHandler(platform, notifier)

	planningApp := application.New(uuid.New(), "APP-2025-052", "Porch extension")
	platform.EventPublisher().Publish(&events.ValidationRequestsSent{Application: planningApp})

	require.Zero(t, notifier.batches)
}
