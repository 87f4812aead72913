package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

// ErrInUse is returned when deleting a location that campaigns still
// reference.
var ErrInUse = errors.New("location is used by campaigns")

// Repository provides operations on the locations table, composed over
// the generic record repository.
type Repository struct {
	records *repo.Repository[Location]
}

// NewRepository creates a location Repository.
func NewRepository() *Repository {
	return &Repository{records: repo.New[Location](mapper{})}
}

func (r *Repository) Create(ctx context.Context, sess *store.Session, l *Location) error {
	return r.records.Create(ctx, sess, l)
}

func (r *Repository) GetByID(ctx context.Context, sess *store.Session, id uuid.UUID) (*Location, error) {
	return r.records.GetByID(ctx, sess, id)
}

// ListByTenant lists locations for a tenant, paginated.
func (r *Repository) ListByTenant(ctx context.Context, sess *store.Session, tenantID uuid.UUID, skip, limit int) ([]Location, error) {
	return r.records.Filter(ctx, sess, skip, limit, repo.Cond{Column: "tenant_id", Value: tenantID})
}

func (r *Repository) Update(ctx context.Context, sess *store.Session, l *Location) error {
	return r.records.Update(ctx, sess, l)
}

// Delete removes the location row. Returns ErrInUse when campaigns
// still reference it (FK RESTRICT, pg code 23503).
func (r *Repository) Delete(ctx context.Context, sess *store.Session, l *Location) error {
	err := r.records.Delete(ctx, sess, l)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrInUse
		}
		return fmt.Errorf("deleting location: %w", err)
	}
	return nil
}
