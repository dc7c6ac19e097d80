package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// Envelope is the wire shape published for each async job. The durable job
// record is written before the envelope is sent, so any consumer that
// receives an envelope can resolve its backing record.
type Envelope struct {
	JobID   string          `json:"job_id"`
	Type    domain.JobType  `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Message is a received envelope plus the receipt needed to delete it.
type Message struct {
	Receipt  string
	Envelope Envelope
}

// Transport is the message queue consumed by the job workers. Delivery is
// at-least-once: a received message stays hidden for the visibility timeout
// and is redelivered if it is not deleted before the timeout elapses.
type Transport interface {
	Ping(ctx context.Context) error
	Send(ctx context.Context, env Envelope) error
	// Receive blocks up to wait for the first message and returns up to max
	// messages, each hidden from other consumers for the visibility timeout.
	Receive(ctx context.Context, max int, wait, visibility time.Duration) ([]Message, error)
	// Delete acknowledges a message so it is never redelivered.
	Delete(ctx context.Context, msg Message) error
}
