package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNotInitialized is returned when the store is used after Close.
var ErrNotInitialized = errors.New("store is not initialized")

// ErrSessionDone is returned when a session is used after commit or rollback.
var ErrSessionDone = errors.New("session already finished")

// Store owns the database connection pool. Sessions and scoped
// connections are opened from it; Close disposes the pool and makes
// further opens fail with ErrNotInitialized.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open connects to the database identified by dsn using the pgx
// stdlib driver and returns a Store wrapping the pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Store{db: db}, nil
}

// New wraps an existing *sql.DB. Used by tests to inject a mock pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping verifies connectivity to the database.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.pool()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Close disposes the connection pool. The store is unusable afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotInitialized
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) pool() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

// WithConn runs fn with a single dedicated connection from the pool.
// The connection is returned to the pool on every exit path.
func (s *Store) WithConn(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	db, err := s.pool()
	if err != nil {
		return err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	return fn(ctx, conn)
}

// Begin opens a new transactional session. The caller owns the session
// and must finish it with exactly one Commit or Rollback.
func (s *Store) Begin(ctx context.Context) (*Session, error) {
	db, err := s.pool()
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return &Session{tx: tx}, nil
}

// WithSession runs fn inside a transactional session. On a nil return
// the session is committed; on error or panic it is rolled back and the
// failure propagates. The session is released on every exit path.
func (s *Store) WithSession(ctx context.Context, fn func(sess *Session) error) error {
	sess, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	// Covers both the error return and a panic inside fn: if the
	// session was not committed by the time we unwind, roll it back.
	defer func() {
		if !sess.done {
			_ = sess.Rollback()
		}
	}()

	if err := fn(sess); err != nil {
		return err
	}

	return sess.Commit()
}

// Session is a single-use transactional scope bound to one connection.
// It must not be shared across goroutines.
type Session struct {
	tx   *sql.Tx
	done bool
}

// ExecContext executes a statement within the session.
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.done {
		return nil, ErrSessionDone
	}
	return s.tx.ExecContext(ctx, query, args...)
}

// QueryContext runs a query within the session.
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.done {
		return nil, ErrSessionDone
	}
	return s.tx.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query within the session. After the
// session has finished, Scan on the returned row reports sql.ErrTxDone.
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.tx.QueryRowContext(ctx, query, args...)
}

// Commit makes the session's writes visible and finishes the session.
func (s *Session) Commit() error {
	if s.done {
		return ErrSessionDone
	}
	s.done = true
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	return nil
}

// Rollback discards the session's writes and finishes the session.
func (s *Session) Rollback() error {
	if s.done {
		return ErrSessionDone
	}
	s.done = true
	if err := s.tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back session: %w", err)
	}
	return nil
}
