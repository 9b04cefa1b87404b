package models

import "time"

type Application struct {
	ID                          string
	TenantID                    string
	Reference                   string
	Description                 string
	BoundaryGeoJSON             []byte
	Status                      string
	Decision                    *string
	ValidatedAt                 *time.Time
	InvalidatedAt               *time.Time
	ClosedOrCancellationComment *string
	ValidRedLineBoundary        *bool
	ValidFee                    *bool
	ValidDescription            *bool
	ValidOwnershipCertificate   *bool
	DocumentsMissing            *bool
	StatusTimestamps            []byte
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

type Recommendation struct {
	ID            string
	TenantID      string
	ApplicationID string
	AssessorID    string
	Comment       string
	Submitted     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ValidationRequest struct {
	ID             string
	TenantID       string
	ApplicationID  string
	Kind           string
	Sequence       int
	State          string
	PostValidation bool
	CancelReason   *string
	CancelledAt    *time.Time
	NotifiedAt     *time.Time
	Approved       *bool
	AutoClosed     bool
	UserID         *string
	Payload        []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ValidationRequestEnvelope struct {
	ID            string
	TenantID      string
	ApplicationID string
	Kind          string
	RequestID     string
	UpdateCounter bool
	ClosedAt      *time.Time
	CreatedAt     time.Time
}

type AuditEntry struct {
	ID                  string
	TenantID            string
	ApplicationID       string
	UserID              *string
	ActivityType        string
	ActivityInformation *string
	Comment             *string
	CreatedAt           time.Time
}
