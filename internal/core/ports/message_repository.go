package ports

import (
	"context"
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// NewMessage is the data stored by MessageRepository.Insert.
type NewMessage struct {
	FromUsername string
	ToUsername   string
	Body         string
	SentAt       time.Time
}

// MessageRepository defines persistence for messages.
type MessageRepository interface {
	// Insert assigns a new monotonic id and returns the stored message with
	// both parties expanded. Unknown parties yield domain.ErrInvalidSender
	// or domain.ErrInvalidRecipient.
	Insert(ctx context.Context, msg NewMessage) (*domain.Message, error)
	// FindByID returns domain.ErrNotFound when absent.
	FindByID(ctx context.Context, id int64) (*domain.Message, error)
	// MarkRead sets read_at to at only when it is still unset, then returns
	// the stored message.
	MarkRead(ctx context.Context, id int64, at time.Time) (*domain.Message, error)
	// ListSentBy and ListReceivedBy order by sent_at, then id. A username
	// with no messages yields an empty slice.
	ListSentBy(ctx context.Context, username string) ([]*domain.Message, error)
	ListReceivedBy(ctx context.Context, username string) ([]*domain.Message, error)
}
