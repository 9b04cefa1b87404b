package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
	"github.com/openplanning/caseflow/modules/planning/infrastructure/persistence/models"
	"github.com/openplanning/caseflow/pkg/composables"
	"github.com/openplanning/caseflow/pkg/repo"
)

const validationRequestColumns = `
	id, tenant_id, application_id, kind, sequence, state, post_validation,
	cancel_reason, cancelled_at, notified_at, approved, auto_closed,
	user_id, payload, created_at, updated_at`

type PgValidationRequestRepository struct{}

func NewValidationRequestRepository() validationrequest.Repository {
	return &PgValidationRequestRepository{}
}

func (r *PgValidationRequestRepository) Create(ctx context.Context, req *validationrequest.ValidationRequest) (*validationrequest.ValidationRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	if req.TenantID == uuid.Nil {
		req.TenantID = tenantID
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	row, err := toDBValidationRequest(req)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO validation_requests (
			id, tenant_id, application_id, kind, sequence, state, post_validation,
			cancel_reason, cancelled_at, notified_at, approved, auto_closed,
			user_id, payload, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		row.ID, row.TenantID, row.ApplicationID, row.Kind, row.Sequence, row.State,
		row.PostValidation, row.CancelReason, row.CancelledAt, row.NotifiedAt,
		row.Approved, row.AutoClosed, row.UserID, row.Payload, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to create validation request")
	}

	// One envelope per request, created with it.
	_, err = tx.Exec(ctx, `
		INSERT INTO validation_request_envelopes (
			id, tenant_id, application_id, kind, request_id, update_counter, closed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, FALSE, NULL, $6)`,
		uuid.New().String(), row.TenantID, row.ApplicationID, row.Kind, row.ID, now,
	)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to create validation request envelope")
	}
	return req, nil
}

func (r *PgValidationRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*validationrequest.ValidationRequest, error) {
	return r.getBy(ctx, id, "")
}

func (r *PgValidationRequestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*validationrequest.ValidationRequest, error) {
	return r.getBy(ctx, id, " FOR UPDATE")
}

func (r *PgValidationRequestRepository) getBy(ctx context.Context, id uuid.UUID, suffix string) (*validationrequest.ValidationRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	row, err := scanValidationRequest(tx.QueryRow(ctx, `
		SELECT `+validationRequestColumns+`
		FROM validation_requests
		WHERE id = $1 AND tenant_id = $2`+suffix,
		id, tenantID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validationrequest.ErrNotFound
		}
		return nil, err
	}
	return toDomainValidationRequest(row)
}

func (r *PgValidationRequestRepository) Update(ctx context.Context, req *validationrequest.ValidationRequest) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	req.UpdatedAt = time.Now().UTC()
	row, err := toDBValidationRequest(req)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE validation_requests SET
			state = $3, cancel_reason = $4, cancelled_at = $5, notified_at = $6,
			approved = $7, auto_closed = $8, payload = $9, updated_at = $10
		WHERE id = $1 AND tenant_id = $2`,
		row.ID, tenantID, row.State, row.CancelReason, row.CancelledAt,
		row.NotifiedAt, row.Approved, row.AutoClosed, row.Payload, row.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return validationrequest.ErrNotFound
	}
	return nil
}

func (r *PgValidationRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM validation_request_envelopes
		WHERE request_id = $1 AND tenant_id = $2`,
		id, tenantID,
	); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM validation_requests
		WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return validationrequest.ErrNotFound
	}
	return nil
}

func (r *PgValidationRequestRepository) MaxSequence(ctx context.Context, applicationID uuid.UUID, kind validationrequest.Kind) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}

	var max int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(sequence), 0) FROM validation_requests
		WHERE application_id = $1 AND tenant_id = $2 AND kind = $3`,
		applicationID, tenantID, string(kind),
	).Scan(&max)
	return max, err
}

func (r *PgValidationRequestRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID, params *validationrequest.FindParams) ([]*validationrequest.ValidationRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"application_id = $1", "tenant_id = $2"}
	args := []interface{}{applicationID, tenantID}
	argPos := 3
	if params != nil {
		if len(params.States) > 0 {
			states := make([]string, 0, len(params.States))
			for _, s := range params.States {
				states = append(states, string(s))
			}
			where = append(where, fmt.Sprintf("state = ANY($%d)", argPos))
			args = append(args, states)
			argPos++
		}
		if len(params.Kinds) > 0 {
			kinds := make([]string, 0, len(params.Kinds))
			for _, k := range params.Kinds {
				kinds = append(kinds, string(k))
			}
			where = append(where, fmt.Sprintf("kind = ANY($%d)", argPos))
			args = append(args, kinds)
			argPos++
		}
	}

	query := `
		SELECT ` + validationRequestColumns + `
		FROM validation_requests
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at ASC
	`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectValidationRequests(rows)
}

func (r *PgValidationRequestRepository) ListPending(ctx context.Context, applicationID uuid.UUID) ([]*validationrequest.ValidationRequest, error) {
	return r.ListByApplication(ctx, applicationID, &validationrequest.FindParams{
		States: []validationrequest.State{validationrequest.StatePending},
	})
}

// ListOpenCreatedBefore is deliberately tenant-agnostic: it feeds the
// process-wide sweep, which re-enters each tenant before mutating.
func (r *PgValidationRequestRepository) ListOpenCreatedBefore(ctx context.Context, cutoff time.Time) ([]*validationrequest.ValidationRequest, error) {
	pool, err := composables.UsePool(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, `
		SELECT `+validationRequestColumns+`
		FROM validation_requests
		WHERE state = $1 AND created_at <= $2
		ORDER BY created_at ASC`,
		string(validationrequest.StateOpen), cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectValidationRequests(rows)
}

func (r *PgValidationRequestRepository) LatestClosedOfKind(ctx context.Context, applicationID uuid.UUID, kind validationrequest.Kind) (*validationrequest.ValidationRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	// Order by the envelope's close timestamp: updated_at moves whenever
	// the row is touched and would misreport an older closure as latest.
	row, err := scanValidationRequest(tx.QueryRow(ctx, `
		SELECT
			r.id, r.tenant_id, r.application_id, r.kind, r.sequence, r.state,
			r.post_validation, r.cancel_reason, r.cancelled_at, r.notified_at,
			r.approved, r.auto_closed, r.user_id, r.payload, r.created_at, r.updated_at
		FROM validation_requests r
		JOIN validation_request_envelopes e ON e.request_id = r.id AND e.tenant_id = r.tenant_id
		WHERE r.application_id = $1 AND r.tenant_id = $2 AND r.kind = $3 AND r.state = $4
		ORDER BY e.closed_at DESC NULLS LAST
		LIMIT 1`,
		applicationID, tenantID, string(kind), string(validationrequest.StateClosed),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validationrequest.ErrNotFound
		}
		return nil, err
	}
	return toDomainValidationRequest(row)
}

func (r *PgValidationRequestRepository) GetEnvelope(ctx context.Context, requestID uuid.UUID) (*validationrequest.Envelope, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var row models.ValidationRequestEnvelope
	err = tx.QueryRow(ctx, `
		SELECT id, tenant_id, application_id, kind, request_id, update_counter, closed_at, created_at
		FROM validation_request_envelopes
		WHERE request_id = $1 AND tenant_id = $2`,
		requestID, tenantID,
	).Scan(
		&row.ID, &row.TenantID, &row.ApplicationID, &row.Kind, &row.RequestID,
		&row.UpdateCounter, &row.ClosedAt, &row.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validationrequest.ErrNotFound
		}
		return nil, err
	}
	return toDomainEnvelope(&row), nil
}

func (r *PgValidationRequestRepository) UpdateEnvelope(ctx context.Context, env *validationrequest.Envelope) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE validation_request_envelopes SET
			update_counter = $3, closed_at = $4
		WHERE id = $1 AND tenant_id = $2`,
		env.ID, tenantID, env.UpdateCounter, env.ClosedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return validationrequest.ErrNotFound
	}
	return nil
}

func scanValidationRequest(row pgx.Row) (*models.ValidationRequest, error) {
	var m models.ValidationRequest
	err := row.Scan(
		&m.ID, &m.TenantID, &m.ApplicationID, &m.Kind, &m.Sequence, &m.State,
		&m.PostValidation, &m.CancelReason, &m.CancelledAt, &m.NotifiedAt,
		&m.Approved, &m.AutoClosed, &m.UserID, &m.Payload, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectValidationRequests(rows pgx.Rows) ([]*validationrequest.ValidationRequest, error) {
	var results []*validationrequest.ValidationRequest
	for rows.Next() {
		row, err := scanValidationRequest(rows)
		if err != nil {
			return nil, err
		}
		req, err := toDomainValidationRequest(row)
		if err != nil {
			return nil, err
		}
		results = append(results, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
