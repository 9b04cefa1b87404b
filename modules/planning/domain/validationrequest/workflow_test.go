package validationrequest_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		from    validationrequest.State
		event   validationrequest.Event
		want    validationrequest.State
		allowed bool
	}{
		{validationrequest.StatePending, validationrequest.EventMarkAsSent, validationrequest.StateOpen, true},
		{validationrequest.StatePending, validationrequest.EventCancel, validationrequest.StateCancelled, true},
		{validationrequest.StateOpen, validationrequest.EventCancel, validationrequest.StateCancelled, true},
		{validationrequest.StateOpen, validationrequest.EventClose, validationrequest.StateClosed, true},
		{validationrequest.StateOpen, validationrequest.EventAutoClose, validationrequest.StateClosed, true},

		{validationrequest.StatePending, validationrequest.EventClose, "", false},
		{validationrequest.StatePending, validationrequest.EventAutoClose, "", false},
		{validationrequest.StateOpen, validationrequest.EventMarkAsSent, "", false},
		{validationrequest.StateClosed, validationrequest.EventCancel, "", false},
		{validationrequest.StateClosed, validationrequest.EventClose, "", false},
		{validationrequest.StateCancelled, validationrequest.EventMarkAsSent, "", false},
		{validationrequest.StateCancelled, validationrequest.EventAutoClose, "", false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_"+string(tc.event), func(t *testing.T) {
			next, err := validationrequest.Transition(tc.from, tc.event)
			if tc.allowed {
				require.NoError(t, err)
				require.Equal(t, tc.want, next)
				return
			}
			var invalid *validationrequest.InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			require.Equal(t, tc.event, invalid.Event)
			require.Equal(t, tc.from, invalid.From)
		})
	}
}
