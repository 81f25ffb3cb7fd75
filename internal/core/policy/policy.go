// Package policy holds the message-access rules. Every function is pure and
// total: it answers from already-fetched data and never touches a store.
// Callers turn a false result into an access-denied response.
package policy

import "github.com/messagely/messagely-api/internal/core/domain"

// CanReadMessage reports whether identity is a party to m.
func CanReadMessage(identity string, m *domain.Message) bool {
	if identity == "" || m == nil {
		return false
	}
	return identity == m.From.Username || identity == m.To.Username
}

// CanMarkRead reports whether identity is the recipient of m. A sender may
// never mark its own message read.
func CanMarkRead(identity string, m *domain.Message) bool {
	if identity == "" || m == nil {
		return false
	}
	return identity == m.To.Username
}

// CanSendAs reports whether identity may send a message as from.
func CanSendAs(identity, from string) bool {
	return identity != "" && identity == from
}

// CanViewMailbox reports whether identity may list the sent or received
// messages of owner.
func CanViewMailbox(identity, owner string) bool {
	return identity != "" && identity == owner
}
