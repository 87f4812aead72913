package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passforge/passforge/internal/store"
)

// note is a minimal record variant used to exercise the repository.
type note struct {
	ID        uuid.UUID
	Title     string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type noteMapper struct {
	policy DeletePolicy
}

func (noteMapper) Table() string { return "notes" }

func (noteMapper) Columns() []string {
	return []string{"id", "title", "is_deleted", "created_at", "updated_at"}
}

func (noteMapper) Values(n *note) []any {
	return []any{n.ID, n.Title, n.IsDeleted, n.CreatedAt, n.UpdatedAt}
}

func (noteMapper) Fields(n *note) []any {
	return []any{&n.ID, &n.Title, &n.IsDeleted, &n.CreatedAt, &n.UpdatedAt}
}

func (noteMapper) ID(n *note) uuid.UUID { return n.ID }

func (noteMapper) SetCreated(n *note, id uuid.UUID, now time.Time) {
	n.ID = id
	n.CreatedAt = now
	n.UpdatedAt = now
}

func (noteMapper) SetUpdated(n *note, now time.Time) { n.UpdatedAt = now }

func (m noteMapper) DeletePolicy() DeletePolicy { return m.policy }

func (noteMapper) DeleteAssigns() []Assign {
	return []Assign{{Column: "is_deleted", Value: true}}
}

func (noteMapper) DeletedMark() Assign {
	return Assign{Column: "is_deleted", Value: true}
}

func setupRepo(t *testing.T, policy DeletePolicy) (*Repository[note], *store.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New[note](noteMapper{policy: policy}), store.New(db), mock
}

func inSession(t *testing.T, st *store.Store, fn func(sess *store.Session) error) error {
	t.Helper()
	return st.WithSession(context.Background(), fn)
}

func noteColumns() []string {
	return []string{"id", "title", "is_deleted", "created_at", "updated_at"}
}

// --- Create Tests ---

func TestCreate_AssignsIdentityAndTimestamps(t *testing.T) {
	r, st, mock := setupRepo(t, DeletePhysical)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notes").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n := &note{Title: "first"}
	err := inSession(t, st, func(sess *store.Session) error {
		return r.Create(context.Background(), sess, n)
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.False(t, n.CreatedAt.IsZero())
	assert.Equal(t, n.CreatedAt, n.UpdatedAt)
	assert.Equal(t, time.UTC, n.CreatedAt.Location())
}

func TestCreate_UniqueViolation(t *testing.T) {
	r, st, mock := setupRepo(t, DeletePhysical)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notes").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "notes_title_key"})
	mock.ExpectRollback()

	err := inSession(t, st, func(sess *store.Session) error {
		return r.Create(context.Background(), sess, &note{Title: "dup"})
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "notes_title_key")
}

// --- Read Tests ---

func TestGetByID_NotFound(t *testing.T) {
	r, st, mock := setupRepo(t, DeletePhysical)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM notes WHERE id = ").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := inSession(t, st, func(sess *store.Session) error {
		_, err := r.GetByID(context.Background(), sess, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByID_IncludesSoftDeleted(t *testing.T) {
	r, st, mock := setupRepo(t, DeleteLogicalFlag)

	id := uuid.New()
	now := time.Now().UTC()

	// No is_deleted exclusion: reads by id reach soft-deleted rows.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM notes WHERE id = \$1$`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(noteColumns()).AddRow(id, "gone", true, now, now))
	mock.ExpectCommit()

	var got *note
	err := inSession(t, st, func(sess *store.Session) error {
		var err error
		got, err = r.GetByID(context.Background(), sess, id)
		return err
	})
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
}

func TestFilter_ExcludesSoftDeleted(t *testing.T) {
	r, st, mock := setupRepo(t, DeleteLogicalFlag)

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM notes WHERE title = \$1 AND is_deleted <> \$2 ORDER BY created_at ASC OFFSET \$3 LIMIT \$4`).
		WithArgs("kept", true, 0, 10).
		WillReturnRows(sqlmock.NewRows(noteColumns()).AddRow(uuid.New(), "kept", false, now, now))
	mock.ExpectCommit()

	var got []note
	err := inSession(t, st, func(sess *store.Session) error {
		var err error
		got, err = r.Filter(context.Background(), sess, 0, 10, Cond{Column: "title", Value: "kept"})
		return err
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Title)
}

func TestFilter_ExplicitMarkerConditionReturnsDeleted(t *testing.T) {
	r, st, mock := setupRepo(t, DeleteLogicalFlag)

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM notes WHERE is_deleted = \$1 ORDER BY created_at ASC OFFSET \$2 LIMIT \$3`).
		WithArgs(true, 0, 10).
		WillReturnRows(sqlmock.NewRows(noteColumns()).AddRow(uuid.New(), "gone", true, now, now))
	mock.ExpectCommit()

	var got []note
	err := inSession(t, st, func(sess *store.Session) error {
		var err error
		got, err = r.Filter(context.Background(), sess, 0, 10, Cond{Column: "is_deleted", Value: true})
		return err
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsDeleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilter_EmptyResultIsNotNil(t *testing.T) {
	r, st, mock := setupRepo(t, DeletePhysical)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM notes").
		WillReturnRows(sqlmock.NewRows(noteColumns()))
	mock.ExpectCommit()

	var got []note
	err := inSession(t, st, func(sess *store.Session) error {
		var err error
		got, err = r.Filter(context.Background(), sess, 0, 10)
		return err
	})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_UnknownColumn(t *testing.T) {
	r, st, mock := setupRepo(t, DeletePhysical)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := inSession(t, st, func(sess *store.Session) error {
		_, err := r.Filter(context.Background(), sess, 0, 10, Cond{Column: "nope", Value: 1})
		return err
	})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

// --- Update Tests ---

func TestUpdate_BumpsTimestampAndWrites(t *testing.T) {
	r, st, mock := setupRepo(t, DeletePhysical)

	created := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	n := &note{ID: uuid.New(), Title: "renamed", CreatedAt: created, UpdatedAt: created}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE notes SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := inSession(t, st, func(sess *store.Session) error {
		return r.Update(context.Background(), sess, n)
	})
	require.NoError(t, err)
	assert.True(t, n.UpdatedAt.After(created))
}

func TestUpdate_MissingRow(t *testing.T) {
	r, st, mock := setupRepo(t, DeletePhysical)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE notes SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := inSession(t, st, func(sess *store.Session) error {
		return r.Update(context.Background(), sess, &note{ID: uuid.New()})
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- Delete Tests ---

func TestDelete_Physical(t *testing.T) {
	r, st, mock := setupRepo(t, DeletePhysical)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM notes WHERE id = ").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := inSession(t, st, func(sess *store.Session) error {
		return r.Delete(context.Background(), sess, &note{ID: id})
	})
	assert.NoError(t, err)
}

func TestDelete_LogicalSetsMarker(t *testing.T) {
	r, st, mock := setupRepo(t, DeleteLogicalFlag)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE notes SET is_deleted = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(true, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := inSession(t, st, func(sess *store.Session) error {
		return r.Delete(context.Background(), sess, &note{ID: id})
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_MissingRow(t *testing.T) {
	r, st, mock := setupRepo(t, DeleteLogicalFlag)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE notes SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := inSession(t, st, func(sess *store.Session) error {
		return r.Delete(context.Background(), sess, &note{ID: uuid.New()})
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
