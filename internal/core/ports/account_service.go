package ports

import (
	"context"
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// AccountService is the account directory.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
	Authenticate(ctx context.Context, username, password string) (bool, error)
	TouchLogin(ctx context.Context, username string) (time.Time, error)
	Get(ctx context.Context, username string) (*domain.Account, error)
	ListAll(ctx context.Context) ([]domain.AccountSummary, error)
	// Login authenticates, records the login and returns a signed token.
	Login(ctx context.Context, username, password string) (string, error)
	// IssueToken mints a token for an already-verified identity.
	IssueToken(username string) (string, error)
}
