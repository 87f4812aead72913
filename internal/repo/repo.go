// Package repo provides a generic record repository layered on the
// unit-of-work store. Each record variant supplies a Mapper describing
// its table, columns and deletion policy; the repository implements the
// uniform create/read/update/delete contract once for all variants.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/passforge/passforge/internal/store"
)

// ErrNotFound is returned when no record exists at the given identity.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write violates a unique constraint.
var ErrConflict = errors.New("unique constraint violation")

// ErrUnknownColumn is returned when a filter condition names a column
// the variant's mapper does not declare.
var ErrUnknownColumn = errors.New("unknown filter column")

// DeletePolicy determines what Delete does for a record variant. It is
// a fixed property of the variant, declared by its mapper.
type DeletePolicy int

const (
	// DeletePhysical removes the row.
	DeletePhysical DeletePolicy = iota
	// DeleteLogicalStatus sets a status column (e.g. "cancelled") and
	// leaves the row reachable by id.
	DeleteLogicalStatus
	// DeleteLogicalFlag sets a boolean marker (e.g. is_voided) and
	// leaves the row reachable by id.
	DeleteLogicalFlag
)

// Assign names a column and the value assigned to it.
type Assign struct {
	Column string
	Value  any
}

// Cond is an exact-match equality condition on a named column.
type Cond struct {
	Column string
	Value  any
}

// Mapper describes how a record variant maps onto its table.
type Mapper[T any] interface {
	// Table is the table name.
	Table() string
	// Columns lists all column names, id first. Values, Fields and the
	// generated SQL all follow this order.
	Columns() []string
	// Values returns the record's column values, aligned with Columns.
	Values(rec *T) []any
	// Fields returns scan destinations into rec, aligned with Columns.
	Fields(rec *T) []any
	// ID returns the record's identity.
	ID(rec *T) uuid.UUID
	// SetCreated assigns the system-managed identity and timestamps at
	// creation time.
	SetCreated(rec *T, id uuid.UUID, now time.Time)
	// SetUpdated bumps the updated-at timestamp.
	SetUpdated(rec *T, now time.Time)
	// DeletePolicy reports the variant's deletion policy.
	DeletePolicy() DeletePolicy
}

// SoftDelete is implemented by mappers whose variant deletes logically.
type SoftDelete interface {
	// DeleteAssigns lists the columns assigned when the record is deleted.
	DeleteAssigns() []Assign
	// DeletedMark identifies deleted rows; default reads exclude rows
	// whose column equals the mark value.
	DeletedMark() Assign
}

// Repository implements the generic record contract for one variant.
type Repository[T any] struct {
	m   Mapper[T]
	now func() time.Time
}

// New creates a Repository for the variant described by m.
func New[T any](m Mapper[T]) *Repository[T] {
	return &Repository[T]{m: m, now: time.Now}
}

// WithClock overrides the repository clock. Used by tests.
func (r *Repository[T]) WithClock(now func() time.Time) *Repository[T] {
	r.now = now
	return r
}

// Create assigns identity and timestamps to rec and inserts it.
func (r *Repository[T]) Create(ctx context.Context, sess *store.Session, rec *T) error {
	r.m.SetCreated(rec, uuid.New(), r.now().UTC().Truncate(time.Microsecond))

	cols := r.m.Columns()
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		r.m.Table(), strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)

	if _, err := sess.ExecContext(ctx, query, r.m.Values(rec)...); err != nil {
		return wrapWriteErr("inserting into "+r.m.Table(), err)
	}
	return nil
}

// GetByID retrieves a record by identity. Soft-deleted records remain
// reachable here.
func (r *Repository[T]) GetByID(ctx context.Context, sess *store.Session, id uuid.UUID) (*T, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = $1",
		strings.Join(r.m.Columns(), ", "), r.m.Table(),
	)

	var rec T
	err := sess.QueryRowContext(ctx, query, id).Scan(r.m.Fields(&rec)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying %s: %w", r.m.Table(), err)
	}
	return &rec, nil
}

// GetOne returns the first live record matching all conditions, or
// ErrNotFound.
func (r *Repository[T]) GetOne(ctx context.Context, sess *store.Session, conds ...Cond) (*T, error) {
	where, args, err := r.buildWhere(conds, true)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s%s LIMIT 1",
		strings.Join(r.m.Columns(), ", "), r.m.Table(), where,
	)

	var rec T
	err = sess.QueryRowContext(ctx, query, args...).Scan(r.m.Fields(&rec)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying %s: %w", r.m.Table(), err)
	}
	return &rec, nil
}

// GetAll returns every live record in insertion order.
func (r *Repository[T]) GetAll(ctx context.Context, sess *store.Session) ([]T, error) {
	where, args, err := r.buildWhere(nil, true)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY created_at ASC",
		strings.Join(r.m.Columns(), ", "), r.m.Table(), where,
	)

	return r.queryMany(ctx, sess, query, args)
}

// Filter returns live records matching all equality conditions, in
// insertion order, with offset/limit pagination. Conditions on columns
// the mapper does not declare fail with ErrUnknownColumn.
func (r *Repository[T]) Filter(ctx context.Context, sess *store.Session, skip, limit int, conds ...Cond) ([]T, error) {
	where, args, err := r.buildWhere(conds, true)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY created_at ASC OFFSET $%d LIMIT $%d",
		strings.Join(r.m.Columns(), ", "), r.m.Table(), where, len(args)+1, len(args)+2,
	)
	args = append(args, skip, limit)

	return r.queryMany(ctx, sess, query, args)
}

// Update bumps the updated-at timestamp and persists every column of rec.
func (r *Repository[T]) Update(ctx context.Context, sess *store.Session, rec *T) error {
	r.m.SetUpdated(rec, r.now().UTC().Truncate(time.Microsecond))

	cols := r.m.Columns()
	vals := r.m.Values(rec)

	// Skip the id column; it is immutable.
	sets := make([]string, 0, len(cols)-1)
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		if col == "id" {
			continue
		}
		args = append(args, vals[i])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, r.m.ID(rec))

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d",
		r.m.Table(), strings.Join(sets, ", "), len(args),
	)

	result, err := sess.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapWriteErr("updating "+r.m.Table(), err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete applies the variant's deletion policy: physical variants lose
// the row, logical variants keep it with the deletion marker set.
func (r *Repository[T]) Delete(ctx context.Context, sess *store.Session, rec *T) error {
	switch r.m.DeletePolicy() {
	case DeletePhysical:
		query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.m.Table())
		result, err := sess.ExecContext(ctx, query, r.m.ID(rec))
		if err != nil {
			return wrapWriteErr("deleting from "+r.m.Table(), err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil

	case DeleteLogicalStatus, DeleteLogicalFlag:
		sd, ok := r.m.(SoftDelete)
		if !ok {
			return fmt.Errorf("%s: logical delete policy without SoftDelete mapper", r.m.Table())
		}

		assigns := sd.DeleteAssigns()
		sets := make([]string, 0, len(assigns)+1)
		args := make([]any, 0, len(assigns)+2)
		for _, a := range assigns {
			args = append(args, a.Value)
			sets = append(sets, fmt.Sprintf("%s = $%d", a.Column, len(args)))
		}
		args = append(args, r.now().UTC().Truncate(time.Microsecond))
		sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
		args = append(args, r.m.ID(rec))

		query := fmt.Sprintf(
			"UPDATE %s SET %s WHERE id = $%d",
			r.m.Table(), strings.Join(sets, ", "), len(args),
		)

		result, err := sess.ExecContext(ctx, query, args...)
		if err != nil {
			return wrapWriteErr("deleting from "+r.m.Table(), err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil

	default:
		return fmt.Errorf("%s: unhandled delete policy", r.m.Table())
	}
}

// buildWhere assembles a WHERE clause from equality conditions, plus
// the soft-delete exclusion when live is true and the variant deletes
// logically.
func (r *Repository[T]) buildWhere(conds []Cond, live bool) (string, []any, error) {
	known := make(map[string]bool, len(r.m.Columns()))
	for _, c := range r.m.Columns() {
		known[c] = true
	}

	var clauses []string
	var args []any
	for _, c := range conds {
		if !known[c.Column] {
			return "", nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c.Column)
		}
		args = append(args, c.Value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", c.Column, len(args)))
	}

	if live && r.m.DeletePolicy() != DeletePhysical {
		if sd, ok := r.m.(SoftDelete); ok {
			mark := sd.DeletedMark()
			// An explicit condition on the marker column wins, so
			// callers can ask for deleted records by name.
			explicit := false
			for _, c := range conds {
				if c.Column == mark.Column {
					explicit = true
					break
				}
			}
			if !explicit {
				args = append(args, mark.Value)
				clauses = append(clauses, fmt.Sprintf("%s <> $%d", mark.Column, len(args)))
			}
		}
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (r *Repository[T]) queryMany(ctx context.Context, sess *store.Session, query string, args []any) ([]T, error) {
	rows, err := sess.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", r.m.Table(), err)
	}
	defer rows.Close()

	var recs []T
	for rows.Next() {
		var rec T
		if err := rows.Scan(r.m.Fields(&rec)...); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", r.m.Table(), err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", r.m.Table(), err)
	}

	if recs == nil {
		recs = []T{}
	}
	return recs, nil
}

// wrapWriteErr maps unique-constraint violations to ErrConflict and
// wraps everything else as a storage failure.
func wrapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}
