package ports

import (
	"context"
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// AccountRepository defines persistence for accounts. Implementations must
// enforce username uniqueness atomically on Insert.
type AccountRepository interface {
	// Insert stores a new account, returning domain.ErrDuplicateIdentity
	// when the username is taken.
	Insert(ctx context.Context, account *domain.Account) error
	// FindByUsername returns domain.ErrNotFound when absent.
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	// TouchLogin atomically advances last_login_at to at (never backwards)
	// and returns the stored value.
	TouchLogin(ctx context.Context, username string, at time.Time) (time.Time, error)
	// List returns every account ordered by username ascending.
	List(ctx context.Context) ([]domain.AccountSummary, error)
}
