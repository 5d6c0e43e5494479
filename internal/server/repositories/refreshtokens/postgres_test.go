package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ    = `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\s*\(user_id,\s*session_id,\s*token,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*$`
	findQ      = `(?s)^\s*SELECT\s+id,\s*user_id,\s*session_id,\s*token,\s*expires_at,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	deleteQ    = `(?s)^\s*DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	bySessionQ = `(?s)^\s*DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+session_id\s*=\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	exp := time.Now().Add(time.Hour)

	mock.ExpectExec(insertQ).
		WithArgs("u1", "s1", "tok123", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), "u1", "s1", "tok123", exp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQ).
		WithArgs("u1", "s1", "tok123", sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), "u1", "s1", "tok123", time.Now())
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestFind(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(m sqlmock.Sqlmock, exp time.Time)
		wantErr error
	}{
		{
			name: "found",
			setup: func(m sqlmock.Sqlmock, exp time.Time) {
				m.ExpectQuery(findQ).WithArgs("tok123").WillReturnRows(
					sqlmock.NewRows([]string{"id", "user_id", "session_id", "token", "expires_at", "created_at"}).
						AddRow("rt-1", "u1", "s1", "tok123", exp, exp.Add(-time.Hour)))
			},
		},
		{
			name: "not found",
			setup: func(m sqlmock.Sqlmock, _ time.Time) {
				m.ExpectQuery(findQ).WithArgs("tok123").WillReturnError(sql.ErrNoRows)
			},
			wantErr: common.ErrorNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			exp := time.Now().Add(10 * time.Minute)
			tt.setup(mock, exp)

			got, err := repo.Find(context.Background(), "tok123")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", got.UserID)
			assert.Equal(t, "s1", got.SessionID)
			assert.Equal(t, "tok123", got.Token)
			assert.True(t, got.Expires.Equal(exp))
		})
	}
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(deleteQ).WithArgs("tok123").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "tok123"))

	mock.ExpectExec(deleteQ).WithArgs("tok123").WillReturnError(errors.New("db err"))
	err := repo.Delete(context.Background(), "tok123")
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db err`, err.Error())
}

func TestDeleteBySession(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(bySessionQ).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.DeleteBySession(context.Background(), "s1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
