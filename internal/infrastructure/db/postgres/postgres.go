// Package postgres persists accounts and messages in PostgreSQL through a
// pgx connection pool. The schema is managed by embedded goose migrations.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	defaultConnectAttempts = 5
	defaultConnectBackoff  = 500 * time.Millisecond
)

// poolIface is the subset of *pgxpool.Pool the repositories use. It is
// satisfied by pgxmock in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config captures the settings for establishing a PostgreSQL pool.
type Config struct {
	DSN             string
	ConnectAttempts uint64
	ConnectBackoff  time.Duration
}

// Connect opens a pool and pings it with exponential backoff, since the
// database often starts alongside the API.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = defaultConnectAttempts
	}
	backoff := cfg.ConnectBackoff
	if backoff <= 0 {
		backoff = defaultConnectBackoff
	}

	b := retry.WithMaxRetries(attempts, retry.NewExponential(backoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return pool, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
