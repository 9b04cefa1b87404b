package validationrequest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
	"github.com/openplanning/caseflow/pkg/serrors"
)

func newPendingRequest() *validationrequest.ValidationRequest {
	return &validationrequest.ValidationRequest{
		Kind:     validationrequest.KindAdditionalDocument,
		Sequence: 1,
		State:    validationrequest.StatePending,
	}
}

func TestValidationRequest_MarkAsSent(t *testing.T) {
	req := newPendingRequest()
	now := time.Now().UTC()

	require.NoError(t, req.MarkAsSent(now))
	require.Equal(t, validationrequest.StateOpen, req.State)
	require.NotNil(t, req.NotifiedAt)
	require.Equal(t, now, *req.NotifiedAt)

	var invalid *validationrequest.InvalidTransitionError
	require.ErrorAs(t, req.MarkAsSent(now), &invalid)
}

func TestValidationRequest_CancelRequiresReason(t *testing.T) {
	req := newPendingRequest()

	err := req.Cancel("   ", time.Now().UTC())
	var fieldErr *serrors.FieldError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "cancel_reason", fieldErr.Field)
	require.Equal(t, validationrequest.StatePending, req.State)
}

func TestValidationRequest_Cancel(t *testing.T) {
	req := newPendingRequest()
	now := time.Now().UTC()

	require.NoError(t, req.Cancel("  raised in error  ", now))
	require.Equal(t, validationrequest.StateCancelled, req.State)
	require.NotNil(t, req.CancelReason)
	require.Equal(t, "raised in error", *req.CancelReason)
	require.NotNil(t, req.CancelledAt)
}

func TestValidationRequest_CancelOpenRequest(t *testing.T) {
	req := newPendingRequest()
	now := time.Now().UTC()
	require.NoError(t, req.MarkAsSent(now))

	require.NoError(t, req.Cancel("no longer needed", now))
	require.Equal(t, validationrequest.StateCancelled, req.State)
}

func TestValidationRequest_CloseRequiresOpen(t *testing.T) {
	req := newPendingRequest()

	var invalid *validationrequest.InvalidTransitionError
	require.ErrorAs(t, req.Close(), &invalid)

	require.NoError(t, req.MarkAsSent(time.Now().UTC()))
	require.NoError(t, req.Close())
	require.Equal(t, validationrequest.StateClosed, req.State)
}

func TestValidationRequest_AutoClose(t *testing.T) {
	req := newPendingRequest()
	require.NoError(t, req.MarkAsSent(time.Now().UTC()))

	require.NoError(t, req.AutoClose())
	require.Equal(t, validationrequest.StateClosed, req.State)
	require.True(t, req.AutoClosed)
	require.NotNil(t, req.Approved)
	require.True(t, *req.Approved)
}

func TestValidationRequest_Destroyable(t *testing.T) {
	req := newPendingRequest()
	require.True(t, req.Destroyable())

	require.NoError(t, req.MarkAsSent(time.Now().UTC()))
	require.False(t, req.Destroyable())
}

func TestValidationRequest_OpenOrPending(t *testing.T) {
	req := newPendingRequest()
	require.True(t, req.OpenOrPending())

	require.NoError(t, req.MarkAsSent(time.Now().UTC()))
	require.True(t, req.OpenOrPending())

	require.NoError(t, req.Close())
	require.False(t, req.OpenOrPending())
}
