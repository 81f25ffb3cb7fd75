package memory

import (
	"context"
	"sort"
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

// MessageRepository implements ports.MessageRepository on a Store.
type MessageRepository struct {
	store *Store
}

// NewMessageRepository returns a repository backed by store.
func NewMessageRepository(store *Store) *MessageRepository {
	return &MessageRepository{store: store}
}

func (r *MessageRepository) Insert(ctx context.Context, msg ports.NewMessage) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.accounts[msg.FromUsername]; !ok {
		return nil, domain.ErrInvalidSender
	}
	if _, ok := r.store.accounts[msg.ToUsername]; !ok {
		return nil, domain.ErrInvalidRecipient
	}

	r.store.nextID++
	row := &messageRow{
		id:     r.store.nextID,
		from:   msg.FromUsername,
		to:     msg.ToUsername,
		body:   msg.Body,
		sentAt: msg.SentAt,
	}
	r.store.messages[row.id] = row
	return r.store.expand(row), nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.store.expand(row), nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, id int64, at time.Time) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if row.readAt == nil {
		readAt := at
		row.readAt = &readAt
	}
	return r.store.expand(row), nil
}

func (r *MessageRepository) ListSentBy(ctx context.Context, username string) ([]*domain.Message, error) {
	return r.list(ctx, func(row *messageRow) bool { return row.from == username })
}

func (r *MessageRepository) ListReceivedBy(ctx context.Context, username string) ([]*domain.Message, error) {
	return r.list(ctx, func(row *messageRow) bool { return row.to == username })
}

func (r *MessageRepository) list(ctx context.Context, match func(*messageRow) bool) ([]*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*domain.Message, 0)
	for _, row := range r.store.messages {
		if match(row) {
			out = append(out, r.store.expand(row))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].SentAt.Before(out[j].SentAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
