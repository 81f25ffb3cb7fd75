package domain

import "errors"

// Account errors.
var (
	ErrDuplicateIdentity  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username/password")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidUsername    = errors.New("invalid username")
)

// Message errors.
var (
	ErrInvalidSender    = errors.New("sender does not exist")
	ErrInvalidRecipient = errors.New("recipient does not exist")
	ErrSelfMessage      = errors.New("cannot send a message to yourself")
	ErrEmptyBody        = errors.New("message body cannot be empty")

	ErrIdempotencyKeyReused = errors.New("idempotency key already used for a different message")
	ErrSendInProgress       = errors.New("a send with this idempotency key is still in progress")
)

// Shared errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
)
