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
	"github.com/messagely/messagely-api/internal/core/ports"
)

const (
	constraintFromFK = "messages_from_username_fkey"
	constraintToFK   = "messages_to_username_fkey"
)

// MessageRepository implements ports.MessageRepository using PostgreSQL.
type MessageRepository struct {
	pool poolIface
}

func NewMessageRepository(pool poolIface) *MessageRepository {
	return &MessageRepository{pool: pool}
}

const selectMessages = `SELECT m.id, m.body, m.sent_at, m.read_at,
	f.username, f.first_name, f.last_name, f.phone,
	t.username, t.first_name, t.last_name, t.phone
	FROM messages m
	JOIN accounts f ON f.username = m.from_username
	JOIN accounts t ON t.username = m.to_username`

const insertMessage = `INSERT INTO messages (from_username, to_username, body, sent_at)
	VALUES ($1, $2, $3, $4) RETURNING id`

func (r *MessageRepository) Insert(ctx context.Context, msg ports.NewMessage) (*domain.Message, error) {
	var id int64
	err := r.pool.QueryRow(ctx, insertMessage, msg.FromUsername, msg.ToUsername, msg.Body, msg.SentAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			switch pgErr.ConstraintName {
			case constraintFromFK:
				return nil, domain.ErrInvalidSender
			case constraintToFK:
				return nil, domain.ErrInvalidRecipient
			}
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*domain.Message, error) {
	msg, err := scanMessage(r.pool.QueryRow(ctx, selectMessages+` WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return msg, nil
}

// COALESCE keeps the first read timestamp.
const markRead = `UPDATE messages SET read_at = COALESCE(read_at, $2) WHERE id = $1`

func (r *MessageRepository) MarkRead(ctx context.Context, id int64, at time.Time) (*domain.Message, error) {
	tag, err := r.pool.Exec(ctx, markRead, id, at)
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *MessageRepository) ListSentBy(ctx context.Context, username string) ([]*domain.Message, error) {
	return r.list(ctx, selectMessages+` WHERE m.from_username = $1 ORDER BY m.sent_at, m.id`, username)
}

func (r *MessageRepository) ListReceivedBy(ctx context.Context, username string) ([]*domain.Message, error) {
	return r.list(ctx, selectMessages+` WHERE m.to_username = $1 ORDER BY m.sent_at, m.id`, username)
}

func (r *MessageRepository) list(ctx context.Context, query, username string) ([]*domain.Message, error) {
	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		m      domain.Message
		readAt *time.Time
	)
	err := row.Scan(
		&m.ID, &m.Body, &m.SentAt, &readAt,
		&m.From.Username, &m.From.FirstName, &m.From.LastName, &m.From.Phone,
		&m.To.Username, &m.To.FirstName, &m.To.LastName, &m.To.Phone,
	)
	if err != nil {
		return nil, err
	}
	m.SentAt = m.SentAt.UTC()
	if readAt != nil {
		utc := readAt.UTC()
		m.ReadAt = &utc
	}
	return &m, nil
}
