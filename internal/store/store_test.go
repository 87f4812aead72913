package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(db), mock
}

func TestWithSession_CommitsOnSuccess(t *testing.T) {
	st, mock := setupStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO things").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := st.WithSession(context.Background(), func(sess *Session) error {
		_, err := sess.ExecContext(context.Background(), "INSERT INTO things (id) VALUES ($1)", 1)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSession_RollsBackOnError(t *testing.T) {
	st, mock := setupStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO things").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := st.WithSession(context.Background(), func(sess *Session) error {
		if _, err := sess.ExecContext(context.Background(), "INSERT INTO things (id) VALUES ($1)", 1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSession_SecondWriteFailureRollsBackFirst(t *testing.T) {
	st, mock := setupStore(t)

	boom := errors.New("constraint violated")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO things").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO others").WillReturnError(boom)
	mock.ExpectRollback()

	err := st.WithSession(context.Background(), func(sess *Session) error {
		if _, err := sess.ExecContext(context.Background(), "INSERT INTO things (id) VALUES ($1)", 1); err != nil {
			return err
		}
		_, err := sess.ExecContext(context.Background(), "INSERT INTO others (id) VALUES ($1)", 2)
		return err
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSession_RollsBackOnPanic(t *testing.T) {
	st, mock := setupStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = st.WithSession(context.Background(), func(sess *Session) error {
			panic("unexpected")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_SingleUse(t *testing.T) {
	st, mock := setupStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	sess, err := st.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Commit())

	assert.ErrorIs(t, sess.Commit(), ErrSessionDone)
	assert.ErrorIs(t, sess.Rollback(), ErrSessionDone)

	_, err = sess.ExecContext(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrSessionDone)
	_, err = sess.QueryContext(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrSessionDone)
}

func TestStore_UnusableAfterClose(t *testing.T) {
	st, mock := setupStore(t)
	mock.ExpectClose()

	require.NoError(t, st.Close())

	assert.ErrorIs(t, st.Ping(context.Background()), ErrNotInitialized)
	_, err := st.Begin(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, st.Close(), ErrNotInitialized)
}
