package handler

import (
	"time"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type registerRequest struct {
	Username  string `json:"username"   validate:"required,max=64"`
	Password  string `json:"password"   validate:"required,max=72"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
	Phone     string `json:"phone"      validate:"max=32"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sendMessageRequest struct {
	// FromUsername is optional; when present it must match the caller.
	FromUsername string `json:"from_username,omitempty"`
	ToUsername   string `json:"to_username" validate:"required"`
	Body         string `json:"body"        validate:"required"`
}

// --- Response types ---

type tokenResponse struct {
	Token string `json:"token"`
}

type usersResponse struct {
	Users []domain.AccountSummary `json:"users"`
}

type userResponse struct {
	User *domain.Account `json:"user"`
}

type messageResponse struct {
	Message *domain.Message `json:"message"`
}

type readReceipt struct {
	ID     int64      `json:"id"`
	ReadAt *time.Time `json:"read_at"`
}

type readReceiptResponse struct {
	Message readReceipt `json:"message"`
}

// receivedMessage is a mailbox entry seen by its recipient.
type receivedMessage struct {
	ID       int64                 `json:"id"`
	Body     string                `json:"body"`
	SentAt   time.Time             `json:"sent_at"`
	ReadAt   *time.Time            `json:"read_at"`
	FromUser domain.AccountSummary `json:"from_user"`
}

// sentMessage is a mailbox entry seen by its sender.
type sentMessage struct {
	ID     int64                 `json:"id"`
	Body   string                `json:"body"`
	SentAt time.Time             `json:"sent_at"`
	ReadAt *time.Time            `json:"read_at"`
	ToUser domain.AccountSummary `json:"to_user"`
}

type receivedResponse struct {
	Messages []receivedMessage `json:"messages"`
}

type sentResponse struct {
	Messages []sentMessage `json:"messages"`
}

func toReceived(msgs []*domain.Message) []receivedMessage {
	out := make([]receivedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, receivedMessage{
			ID:       m.ID,
			Body:     m.Body,
			SentAt:   m.SentAt,
			ReadAt:   m.ReadAt,
			FromUser: m.From,
		})
	}
	return out
}

func toSent(msgs []*domain.Message) []sentMessage {
	out := make([]sentMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, sentMessage{
			ID:     m.ID,
			Body:   m.Body,
			SentAt: m.SentAt,
			ReadAt: m.ReadAt,
			ToUser: m.To,
		})
	}
	return out
}
