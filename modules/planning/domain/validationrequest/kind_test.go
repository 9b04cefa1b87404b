package validationrequest_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openplanning/caseflow/modules/planning/domain/application"
	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
)

func TestKind_Valid(t *testing.T) {
	for _, kind := range validationrequest.Kinds() {
		require.True(t, kind.Valid(), string(kind))
	}
	require.False(t, validationrequest.Kind("parking_survey").Valid())
}

func TestKind_ActivityType(t *testing.T) {
	require.Equal(t,
		"red_line_boundary_change_validation_request_sent",
		validationrequest.KindRedLineBoundaryChange.ActivityType("sent"),
	)
	require.Equal(t,
		"additional_document_validation_request_cancelled",
		validationrequest.KindAdditionalDocument.ActivityType("cancelled"),
	)
}

func TestKind_PreValidationOnly(t *testing.T) {
	preOnly := map[validationrequest.Kind]bool{
		validationrequest.KindFeeChange:            true,
		validationrequest.KindOtherChange:          true,
		validationrequest.KindOwnershipCertificate: true,
	}
	for _, kind := range validationrequest.Kinds() {
		require.Equal(t, preOnly[kind], kind.Spec().PreValidationOnly, string(kind))
	}
}

func TestKind_UpdatesCounter(t *testing.T) {
	counters := map[validationrequest.Kind]bool{
		validationrequest.KindReplacementDocument:   true,
		validationrequest.KindRedLineBoundaryChange: true,
		validationrequest.KindDescriptionChange:     true,
		validationrequest.KindFeeChange:             true,
		validationrequest.KindOtherChange:           true,
	}
	for _, kind := range validationrequest.Kinds() {
		require.Equal(t, counters[kind], kind.Spec().UpdatesCounter, string(kind))
	}
}

func TestKindSpec_MarkInvalidAndReset(t *testing.T) {
	app := application.New(uuid.New(), "APP-2025-002", "Loft conversion")

	spec := validationrequest.KindRedLineBoundaryChange.Spec()
	spec.MarkInvalid(app)
	require.NotNil(t, app.ValidRedLineBoundary)
	require.False(t, *app.ValidRedLineBoundary)

	spec.ResetValidity(app)
	require.Nil(t, app.ValidRedLineBoundary)
}

func TestKindSpec_MarkInvalid_DocumentsMissing(t *testing.T) {
	app := application.New(uuid.New(), "APP-2025-003", "Garage demolition")

	spec := validationrequest.KindAdditionalDocument.Spec()
	spec.MarkInvalid(app)
	require.NotNil(t, app.DocumentsMissing)
	require.True(t, *app.DocumentsMissing)

	spec.ResetValidity(app)
	require.Nil(t, app.DocumentsMissing)
}

func TestKindSpec_ApplyAutoClose_DescriptionChange(t *testing.T) {
	app := application.New(uuid.New(), "APP-2025-004", "Original description")

	spec := validationrequest.KindDescriptionChange.Spec()
	spec.ApplyAutoClose(app, validationrequest.DescriptionChangePayload{
		ProposedDescription: "Amended description",
	})

	require.Equal(t, "Amended description", app.Description)
	require.NotNil(t, app.ValidDescription)
	require.True(t, *app.ValidDescription)
}

func TestKindSpec_ApplyAutoClose_RedLineBoundary(t *testing.T) {
	app := application.New(uuid.New(), "APP-2025-005", "Side extension")
	proposed := json.RawMessage(`{"type":"Polygon","coordinates":[]}`)

	spec := validationrequest.KindRedLineBoundaryChange.Spec()
	spec.ApplyAutoClose(app, validationrequest.RedLineBoundaryChangePayload{
		NewGeoJSON: proposed,
	})

	require.JSONEq(t, string(proposed), string(app.BoundaryGeoJSON))
	require.NotNil(t, app.ValidRedLineBoundary)
	require.True(t, *app.ValidRedLineBoundary)
}

func TestKindSpec_ApplyAutoClose_OtherChangeHasNoEffect(t *testing.T) {
	spec := validationrequest.KindOtherChange.Spec()
	require.Nil(t, spec.ApplyAutoClose)
	require.Nil(t, spec.MarkInvalid)
}

func TestPayload_RoundTripByKind(t *testing.T) {
	payload := validationrequest.FeeChangePayload{Reason: "underpaid"}
	data, err := validationrequest.MarshalPayload(payload)
	require.NoError(t, err)

	decoded, err := validationrequest.UnmarshalPayload(validationrequest.KindFeeChange, data)
	require.NoError(t, err)
	require.IsType(t, validationrequest.FeeChangePayload{}, decoded)

	_, err = validationrequest.UnmarshalPayload(validationrequest.Kind("bogus"), data)
	require.Error(t, err)
}
