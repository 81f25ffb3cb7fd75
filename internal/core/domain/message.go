package domain

import "time"

// Message is a direct message from one account to another.
// From and To carry the display attributes of both parties; their Username
// fields are the references into the account directory.
type Message struct {
	ID     int64          `json:"id"`
	From   AccountSummary `json:"from_user"`
	To     AccountSummary `json:"to_user"`
	Body   string         `json:"body"`
	SentAt time.Time      `json:"sent_at"`
	ReadAt *time.Time     `json:"read_at"`
}

// IsRead reports whether the recipient has already read the message.
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// ReadTimestamp returns the instant to record when the message is read at
// now. Read time is always strictly after the send time.
func (m *Message) ReadTimestamp(now time.Time) time.Time {
	if !now.After(m.SentAt) {
		return m.SentAt.Add(time.Millisecond)
	}
	return now
}
