package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInTransaction(t *testing.T) {
	fnErr := errors.New("function failed")

	tests := []struct {
		name       string
		setup      func(mock sqlmock.Sqlmock)
		fn         TxFn
		wantErrIs  error
		wantErrMsg string
	}{
		{
			name: "commit_on_success",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit()
			},
			fn: func(ctx context.Context, tx *sql.Tx) error { return nil },
		},
		{
			name: "rollback_on_error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn:        func(ctx context.Context, tx *sql.Tx) error { return fnErr },
			wantErrIs: fnErr,
		},
		{
			name: "begin_fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("no connection"))
			},
			fn:         func(ctx context.Context, tx *sql.Tx) error { return nil },
			wantErrMsg: "failed to begin transaction",
		},
		{
			name: "commit_fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(errors.New("commit failed"))
			},
			fn:         func(ctx context.Context, tx *sql.Tx) error { return nil },
			wantErrIs:  ErrTransactionFailed,
			wantErrMsg: "failed to commit transaction",
		},
		{
			name: "rollback_fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback().WillReturnError(errors.New("rollback failed"))
			},
			fn:         func(ctx context.Context, tx *sql.Tx) error { return fnErr },
			wantErrIs:  fnErr,
			wantErrMsg: "error rolling back transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.setup(mock)

			err = RunInTransaction(context.Background(), db, tt.fn)
			if tt.wantErrIs == nil && tt.wantErrMsg == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				if tt.wantErrIs != nil {
					assert.ErrorIs(t, err, tt.wantErrIs)
				}
				if tt.wantErrMsg != "" {
					assert.Contains(t, err.Error(), tt.wantErrMsg)
				}
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRunInTransaction_Panic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
			panic("test panic")
		})
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

// txRecordingUserStore records the transaction it was bound to.
type txRecordingUserStore struct {
	UserStore
	tx *sql.Tx
}

func (s *txRecordingUserStore) WithTx(tx *sql.Tx) UserStore {
	return &txRecordingUserStore{tx: tx}
}

type txRecordingReimbursementStore struct {
	ReimbursementStore
	tx *sql.Tx
}

func (s *txRecordingReimbursementStore) WithTx(tx *sql.Tx) ReimbursementStore {
	return &txRecordingReimbursementStore{tx: tx}
}

func TestSQLTxManager_BindsStoresToTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectCommit()

	manager := NewSQLTxManager(db, &txRecordingUserStore{}, &txRecordingReimbursementStore{})

	err = manager.WithinTx(context.Background(), func(ctx context.Context, stores Stores) error {
		users, ok := stores.Users.(*txRecordingUserStore)
		require.True(t, ok)
		reimbursements, ok := stores.Reimbursements.(*txRecordingReimbursementStore)
		require.True(t, ok)

		assert.NotNil(t, users.tx)
		assert.Same(t, users.tx, reimbursements.tx)
		return nil
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTxManager_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectRollback()

	manager := NewSQLTxManager(db, &txRecordingUserStore{}, &txRecordingReimbursementStore{})
	err = manager.WithinTx(context.Background(), func(ctx context.Context, stores Stores) error {
		return ErrUserNotFound
	})

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
