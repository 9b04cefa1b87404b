package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openplanning/caseflow/modules/planning/domain/audit"
	"github.com/openplanning/caseflow/modules/planning/infrastructure/persistence/models"
	"github.com/openplanning/caseflow/pkg/composables"
	"github.com/openplanning/caseflow/pkg/repo"
)

type PgAuditRepository struct{}

func NewAuditRepository() audit.Repository {
	return &PgAuditRepository{}
}

func (r *PgAuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	if entry.TenantID == uuid.Nil {
		entry.TenantID = tenantID
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO planning_audit_entries (
			id, tenant_id, application_id, user_id, activity_type,
			activity_information, comment, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID.String(), entry.TenantID.String(), entry.ApplicationID.String(),
		uuidPtrToString(entry.UserID), entry.ActivityType,
		entry.ActivityInformation, entry.Comment, entry.CreatedAt,
	)
	return err
}

func (r *PgAuditRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID, params *audit.FindParams) ([]*audit.Entry, error) {
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
	if params != nil && params.ActivityType != "" {
		where = append(where, "activity_type = $3")
		args = append(args, params.ActivityType)
	}

	query := `
		SELECT id, tenant_id, application_id, user_id, activity_type,
			activity_information, comment, created_at
		FROM planning_audit_entries
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

	var results []*audit.Entry
	for rows.Next() {
		var row models.AuditEntry
		if err := rows.Scan(
			&row.ID, &row.TenantID, &row.ApplicationID, &row.UserID,
			&row.ActivityType, &row.ActivityInformation, &row.Comment, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainAuditEntry(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
