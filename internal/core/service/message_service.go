package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

// Losers of an idempotency reservation poll until the winner completes.
const (
	claimPoll = 50 * time.Millisecond
	claimWait = 5 * time.Second
)

// MessageService implements the message ledger.
type MessageService struct {
	messages ports.MessageRepository
	accounts ports.AccountRepository
	dedup    ports.SendDedup
	logger   zerolog.Logger
	now      func() time.Time

	claimPoll time.Duration
	claimWait time.Duration
}

// NewMessageService returns a MessageService. dedup may be nil, in which case
// idempotency keys are ignored.
func NewMessageService(
	messages ports.MessageRepository,
	accounts ports.AccountRepository,
	dedup ports.SendDedup,
	logger zerolog.Logger,
) *MessageService {
	return &MessageService{
		messages:  messages,
		accounts:  accounts,
		dedup:     dedup,
		logger:    logger,
		now:       domain.Now,
		claimPoll: claimPoll,
		claimWait: claimWait,
	}
}

// Create stores a new message. When an idempotency key is supplied and was
// already used by the same sender, the original message is returned.
// Concurrent submissions with one key insert at most once.
func (s *MessageService) Create(ctx context.Context, in ports.SendInput) (*domain.Message, error) {
	if in.Body == "" {
		return nil, domain.ErrEmptyBody
	}
	if in.FromUsername == in.ToUsername {
		return nil, domain.ErrSelfMessage
	}
	if s.dedup == nil || in.IdempotencyKey == "" {
		return s.insert(ctx, in)
	}

	var out *domain.Message
	b := retry.WithMaxDuration(s.claimWait, retry.NewConstant(s.claimPoll))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		id, won, err := s.dedup.Reserve(ctx, in.FromUsername, in.IdempotencyKey)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("from", in.FromUsername).Msg("dedup reserve failed, sending anyway")
			out, err = s.insert(ctx, in)
			return err
		case won:
			out, err = s.insertReserved(ctx, in)
			return err
		case id == 0:
			return retry.RetryableError(domain.ErrSendInProgress)
		default:
			out, err = s.replay(ctx, in, id)
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MessageService) insert(ctx context.Context, in ports.SendInput) (*domain.Message, error) {
	msg, err := s.messages.Insert(ctx, ports.NewMessage{
		FromUsername: in.FromUsername,
		ToUsername:   in.ToUsername,
		Body:         in.Body,
		SentAt:       s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("message_id", msg.ID).
		Str("from", msg.From.Username).
		Str("to", msg.To.Username).
		Msg("message sent")
	return msg, nil
}

// insertReserved inserts under a won reservation, then records the id or
// releases the key so a retry can insert.
func (s *MessageService) insertReserved(ctx context.Context, in ports.SendInput) (*domain.Message, error) {
	msg, err := s.insert(ctx, in)
	if err != nil {
		if rerr := s.dedup.Release(ctx, in.FromUsername, in.IdempotencyKey); rerr != nil {
			s.logger.Warn().Err(rerr).Str("from", in.FromUsername).Msg("failed to release dedup key")
		}
		return nil, err
	}
	if err := s.dedup.Complete(ctx, in.FromUsername, in.IdempotencyKey, msg.ID); err != nil {
		s.logger.Warn().Err(err).Str("from", in.FromUsername).Msg("failed to set dedup key")
	}
	return msg, nil
}

// replay returns the message an idempotency key already produced. The key
// must not be reused for a different recipient or body.
func (s *MessageService) replay(ctx context.Context, in ports.SendInput, id int64) (*domain.Message, error) {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.logger.Warn().Int64("message_id", id).Msg("dedup hit for missing message")
		msg, err = s.insert(ctx, in)
		if err != nil {
			return nil, err
		}
		if err := s.dedup.Complete(ctx, in.FromUsername, in.IdempotencyKey, msg.ID); err != nil {
			s.logger.Warn().Err(err).Str("from", in.FromUsername).Msg("failed to set dedup key")
		}
		return msg, nil
	}

	if msg.To.Username != in.ToUsername || msg.Body != in.Body {
		return nil, domain.ErrIdempotencyKeyReused
	}
	s.logger.Debug().Int64("message_id", id).Str("from", in.FromUsername).Msg("idempotent replay")
	return msg, nil
}

func (s *MessageService) Get(ctx context.Context, id int64) (*domain.Message, error) {
	return s.messages.FindByID(ctx, id)
}

// MarkRead records the first read of a message. Later calls return the
// message unchanged.
func (s *MessageService) MarkRead(ctx context.Context, id int64) (*domain.Message, error) {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.IsRead() {
		return msg, nil
	}

	read, err := s.messages.MarkRead(ctx, id, msg.ReadTimestamp(s.now()))
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("message_id", id).Str("to", read.To.Username).Msg("message read")
	return read, nil
}

func (s *MessageService) ListSentBy(ctx context.Context, username string) ([]*domain.Message, error) {
	if err := s.requireAccount(ctx, username); err != nil {
		return nil, err
	}
	return s.messages.ListSentBy(ctx, username)
}

func (s *MessageService) ListReceivedBy(ctx context.Context, username string) ([]*domain.Message, error) {
	if err := s.requireAccount(ctx, username); err != nil {
		return nil, err
	}
	return s.messages.ListReceivedBy(ctx, username)
}

// requireAccount separates "no such user" from "no messages".
func (s *MessageService) requireAccount(ctx context.Context, username string) error {
	if _, err := s.accounts.FindByUsername(ctx, username); err != nil {
		return fmt.Errorf("mailbox %q: %w", username, err)
	}
	return nil
}
