package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/messagely/messagely-api/internal/core/domain"
)

func TestAccountRepository_Insert(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	account := &domain.Account{
		Username:     "alice",
		PasswordHash: "digest",
		FirstName:    "Alice",
		LastName:     "Liddell",
		Phone:        "+15550100",
		JoinedAt:     now,
		LastLoginAt:  now,
	}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs("alice", "digest", "Alice", "Liddell", "+15550100", now, now).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate username",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs("alice", "digest", "Alice", "Liddell", "+15550100", now, now).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_pkey"})
			},
			wantErr: domain.ErrDuplicateIdentity,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs("alice", "digest", "Alice", "Liddell", "+15550100", now, now).
					WillReturnError(errors.New("connection refused"))
			},
			errMsg: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			err = NewAccountRepository(mock).Insert(context.Background(), account)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestAccountRepository_FindByUsername(t *testing.T) {
	joined := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"username", "password_hash", "first_name", "last_name", "phone", "joined_at", "last_login_at"}

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT username, password_hash`).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows(cols).AddRow("alice", "digest", "Alice", "Liddell", "", joined, joined))

		got, err := NewAccountRepository(mock).FindByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, "digest", got.PasswordHash)
		assert.True(t, got.JoinedAt.Equal(joined))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT username, password_hash`).
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		_, err = NewAccountRepository(mock).FindByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_TouchLogin(t *testing.T) {
	stored := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)
	earlier := stored.Add(-time.Hour)

	t.Run("keeps the later timestamp", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`UPDATE accounts SET last_login_at = GREATEST`).
			WithArgs("alice", earlier).
			WillReturnRows(pgxmock.NewRows([]string{"last_login_at"}).AddRow(stored))

		got, err := NewAccountRepository(mock).TouchLogin(context.Background(), "alice", earlier)
		require.NoError(t, err)
		assert.True(t, got.Equal(stored))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`UPDATE accounts SET last_login_at = GREATEST`).
			WithArgs("ghost", stored).
			WillReturnError(pgx.ErrNoRows)

		_, err = NewAccountRepository(mock).TouchLogin(context.Background(), "ghost", stored)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT username, first_name, last_name, phone FROM accounts ORDER BY username`).
		WillReturnRows(pgxmock.NewRows([]string{"username", "first_name", "last_name", "phone"}).
			AddRow("alice", "Alice", "Liddell", "").
			AddRow("bob", "Bob", "Builder", "+15550101"))

	got, err := NewAccountRepository(mock).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.AccountSummary{
		{Username: "alice", FirstName: "Alice", LastName: "Liddell"},
		{Username: "bob", FirstName: "Bob", LastName: "Builder", Phone: "+15550101"},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
