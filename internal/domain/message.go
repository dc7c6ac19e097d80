package domain

import "time"

// Message is a persisted notification shown to supervisors. A nil ReceiverID
// marks a broadcast message addressed to every supervisor.
type Message struct {
	ID         string
	SenderID   *string
	ReceiverID *string
	Content    string
	CreatedAt  time.Time
}
