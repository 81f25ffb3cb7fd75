// Package memory provides in-process account and message repositories. They
// share one Store so messages can resolve their parties the way a foreign
// key would.
package memory

import (
	"sync"
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// Store holds all records behind a single lock.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	messages map[int64]*messageRow
	nextID   int64
}

type messageRow struct {
	id     int64
	from   string
	to     string
	body   string
	sentAt time.Time
	readAt *time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]domain.Account),
		messages: make(map[int64]*messageRow),
	}
}

// expand joins a row with its parties. Callers hold s.mu.
func (s *Store) expand(row *messageRow) *domain.Message {
	from := s.accounts[row.from]
	to := s.accounts[row.to]
	m := &domain.Message{
		ID:     row.id,
		From:   from.Summary(),
		To:     to.Summary(),
		Body:   row.body,
		SentAt: row.sentAt,
	}
	if row.readAt != nil {
		readAt := *row.readAt
		m.ReadAt = &readAt
	}
	return m
}
