package persistence

import (
	"context"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openplanning/caseflow/modules/planning/domain/application"
	"github.com/openplanning/caseflow/modules/planning/infrastructure/persistence/models"
	"github.com/openplanning/caseflow/pkg/composables"
)

const applicationColumns = `
	id, tenant_id, reference, description, boundary_geojson, status, decision,
	validated_at, invalidated_at, closed_or_cancellation_comment,
	valid_red_line_boundary, valid_fee, valid_description,
	valid_ownership_certificate, documents_missing,
	status_timestamps, created_at, updated_at`

type PgApplicationRepository struct{}

func NewApplicationRepository() application.Repository {
	return &PgApplicationRepository{}
}

func (r *PgApplicationRepository) Create(ctx context.Context, app *application.Application) (*application.Application, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	if app.TenantID == uuid.Nil {
		app.TenantID = tenantID
	}
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now

	row, err := toDBApplication(app)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO planning_applications (
			id, tenant_id, reference, description, boundary_geojson, status, decision,
			validated_at, invalidated_at, closed_or_cancellation_comment,
			valid_red_line_boundary, valid_fee, valid_description,
			valid_ownership_certificate, documents_missing,
			status_timestamps, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		row.ID, row.TenantID, row.Reference, row.Description, row.BoundaryGeoJSON,
		row.Status, row.Decision, row.ValidatedAt, row.InvalidatedAt,
		row.ClosedOrCancellationComment, row.ValidRedLineBoundary, row.ValidFee,
		row.ValidDescription, row.ValidOwnershipCertificate, row.DocumentsMissing,
		row.StatusTimestamps, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to create application")
	}
	return app, nil
}

func (r *PgApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	return r.getBy(ctx, id, "")
}

func (r *PgApplicationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	return r.getBy(ctx, id, " FOR UPDATE")
}

func (r *PgApplicationRepository) getBy(ctx context.Context, id uuid.UUID, suffix string) (*application.Application, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var row models.Application
	err = tx.QueryRow(ctx, `
		SELECT `+applicationColumns+`
		FROM planning_applications
		WHERE id = $1 AND tenant_id = $2`+suffix,
		id, tenantID,
	).Scan(
		&row.ID, &row.TenantID, &row.Reference, &row.Description, &row.BoundaryGeoJSON,
		&row.Status, &row.Decision, &row.ValidatedAt, &row.InvalidatedAt,
		&row.ClosedOrCancellationComment, &row.ValidRedLineBoundary, &row.ValidFee,
		&row.ValidDescription, &row.ValidOwnershipCertificate, &row.DocumentsMissing,
		&row.StatusTimestamps, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrNotFound
		}
		return nil, err
	}
	return toDomainApplication(&row)
}

func (r *PgApplicationRepository) Update(ctx context.Context, app *application.Application) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	app.UpdatedAt = time.Now().UTC()
	row, err := toDBApplication(app)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE planning_applications SET
			reference = $3, description = $4, boundary_geojson = $5, status = $6,
			decision = $7, validated_at = $8, invalidated_at = $9,
			closed_or_cancellation_comment = $10, valid_red_line_boundary = $11,
			valid_fee = $12, valid_description = $13,
			valid_ownership_certificate = $14, documents_missing = $15,
			status_timestamps = $16, updated_at = $17
		WHERE id = $1 AND tenant_id = $2`,
		row.ID, tenantID, row.Reference, row.Description, row.BoundaryGeoJSON,
		row.Status, row.Decision, row.ValidatedAt, row.InvalidatedAt,
		row.ClosedOrCancellationComment, row.ValidRedLineBoundary, row.ValidFee,
		row.ValidDescription, row.ValidOwnershipCertificate, row.DocumentsMissing,
		row.StatusTimestamps, row.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}

func (r *PgApplicationRepository) SaveRecommendation(ctx context.Context, rec *application.Recommendation) (*application.Recommendation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	if rec.TenantID == uuid.Nil {
		rec.TenantID = tenantID
	}
	now := time.Now().UTC()
	rec.UpdatedAt = now
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
		rec.CreatedAt = now
	}

	row := toDBRecommendation(rec)
	_, err = tx.Exec(ctx, `
		INSERT INTO planning_recommendations (
			id, tenant_id, application_id, assessor_id, comment, submitted, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			comment = EXCLUDED.comment,
			submitted = EXCLUDED.submitted,
			updated_at = EXCLUDED.updated_at`,
		row.ID, row.TenantID, row.ApplicationID, row.AssessorID,
		row.Comment, row.Submitted, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PgApplicationRepository) LatestRecommendation(ctx context.Context, applicationID uuid.UUID) (*application.Recommendation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var row models.Recommendation
	err = tx.QueryRow(ctx, `
		SELECT id, tenant_id, application_id, assessor_id, comment, submitted, created_at, updated_at
		FROM planning_recommendations
		WHERE application_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		applicationID, tenantID,
	).Scan(
		&row.ID, &row.TenantID, &row.ApplicationID, &row.AssessorID,
		&row.Comment, &row.Submitted, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrNotFound
		}
		return nil, err
	}
	return toDomainRecommendation(&row), nil
}
