package application

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("application not found")

type Repository interface {
	Create(ctx context.Context, app *Application) (*Application, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Application, error)
	// GetByIDForUpdate locks the row for the duration of the enclosing
	// transaction so concurrent transitions serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Application, error)
	Update(ctx context.Context, app *Application) error

	SaveRecommendation(ctx context.Context, rec *Recommendation) (*Recommendation, error)
	LatestRecommendation(ctx context.Context, applicationID uuid.UUID) (*Recommendation, error)
}
