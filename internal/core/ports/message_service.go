package ports

import (
	"context"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// SendInput carries a message submission.
type SendInput struct {
	FromUsername string
	ToUsername   string
	Body         string
	// IdempotencyKey, when set, makes repeated submissions from the same
	// sender return the first stored message.
	IdempotencyKey string
}

// MessageService is the message ledger.
type MessageService interface {
	Create(ctx context.Context, in SendInput) (*domain.Message, error)
	Get(ctx context.Context, id int64) (*domain.Message, error)
	MarkRead(ctx context.Context, id int64) (*domain.Message, error)
	ListSentBy(ctx context.Context, username string) ([]*domain.Message, error)
	ListReceivedBy(ctx context.Context, username string) ([]*domain.Message, error)
}

// SendDedup guards idempotency keys. A sender reserves a key before
// inserting, then either completes it with the stored id or releases it.
type SendDedup interface {
	// Reserve claims (sender, key). won reports whether the caller must
	// insert. When lost, id is the completed message id, or 0 while another
	// caller still holds the reservation.
	Reserve(ctx context.Context, sender, key string) (id int64, won bool, err error)
	// Complete records id for a reservation the caller won.
	Complete(ctx context.Context, sender, key string, id int64) error
	// Release drops a reservation whose insert failed.
	Release(ctx context.Context, sender, key string) error
}
