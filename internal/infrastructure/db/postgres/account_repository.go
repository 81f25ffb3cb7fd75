package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// AccountRepository implements ports.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool poolIface
}

func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const insertAccount = `INSERT INTO accounts
	(username, password_hash, first_name, last_name, phone, joined_at, last_login_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, insertAccount,
		account.Username,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.Phone,
		account.JoinedAt,
		account.LastLoginAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrDuplicateIdentity
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

const selectAccount = `SELECT username, password_hash, first_name, last_name, phone, joined_at, last_login_at
	FROM accounts WHERE username = $1`

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var a domain.Account
	err := r.pool.QueryRow(ctx, selectAccount, username).Scan(
		&a.Username,
		&a.PasswordHash,
		&a.FirstName,
		&a.LastName,
		&a.Phone,
		&a.JoinedAt,
		&a.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	a.JoinedAt = a.JoinedAt.UTC()
	a.LastLoginAt = a.LastLoginAt.UTC()
	return &a, nil
}

const touchLogin = `UPDATE accounts SET last_login_at = GREATEST(last_login_at, $2)
	WHERE username = $1 RETURNING last_login_at`

func (r *AccountRepository) TouchLogin(ctx context.Context, username string, at time.Time) (time.Time, error) {
	var stored time.Time
	if err := r.pool.QueryRow(ctx, touchLogin, username, at).Scan(&stored); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, domain.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("touch login: %w", err)
	}
	return stored.UTC(), nil
}

const listAccounts = `SELECT username, first_name, last_name, phone FROM accounts ORDER BY username`

func (r *AccountRepository) List(ctx context.Context) ([]domain.AccountSummary, error) {
	rows, err := r.pool.Query(ctx, listAccounts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AccountSummary, 0)
	for rows.Next() {
		var s domain.AccountSummary
		if err := rows.Scan(&s.Username, &s.FirstName, &s.LastName, &s.Phone); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}
