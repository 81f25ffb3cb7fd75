package memory

import (
	"context"
	"sort"
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// AccountRepository implements ports.AccountRepository on a Store.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository returns a repository backed by store.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.accounts[account.Username]; exists {
		return domain.ErrDuplicateIdentity
	}
	r.store.accounts[account.Username] = *account
	return nil
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.accounts[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *AccountRepository) TouchLogin(ctx context.Context, username string, at time.Time) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.accounts[username]
	if !ok {
		return time.Time{}, domain.ErrNotFound
	}
	if at.After(a.LastLoginAt) {
		a.LastLoginAt = at
		r.store.accounts[username] = a
	}
	return a.LastLoginAt, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.AccountSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.AccountSummary, 0, len(r.store.accounts))
	for _, a := range r.store.accounts {
		out = append(out, a.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
