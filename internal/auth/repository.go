package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

// Repository provides operations on the users table, composed over the
// generic record repository.
type Repository struct {
	records *repo.Repository[User]
}

// NewRepository creates a user Repository.
func NewRepository() *Repository {
	return &Repository{records: repo.New[User](userMapper{})}
}

// Create inserts a new user. Returns repo.ErrConflict when the email is
// already taken.
func (r *Repository) Create(ctx context.Context, sess *store.Session, u *User) error {
	return r.records.Create(ctx, sess, u)
}

// GetByID retrieves a user by id.
func (r *Repository) GetByID(ctx context.Context, sess *store.Session, id uuid.UUID) (*User, error) {
	return r.records.GetByID(ctx, sess, id)
}

// GetByEmail retrieves a user by email.
func (r *Repository) GetByEmail(ctx context.Context, sess *store.Session, email string) (*User, error) {
	return r.records.GetOne(ctx, sess, repo.Cond{Column: "email", Value: email})
}

// ListByTenant lists users belonging to a tenant, paginated.
func (r *Repository) ListByTenant(ctx context.Context, sess *store.Session, tenantID uuid.UUID, skip, limit int) ([]User, error) {
	return r.records.Filter(ctx, sess, skip, limit, repo.Cond{Column: "tenant_id", Value: tenantID})
}

// List lists all users, paginated.
func (r *Repository) List(ctx context.Context, sess *store.Session, skip, limit int) ([]User, error) {
	return r.records.Filter(ctx, sess, skip, limit)
}

// Update persists a modified user.
func (r *Repository) Update(ctx context.Context, sess *store.Session, u *User) error {
	return r.records.Update(ctx, sess, u)
}

// Delete removes a user row.
func (r *Repository) Delete(ctx context.Context, sess *store.Session, u *User) error {
	return r.records.Delete(ctx, sess, u)
}
