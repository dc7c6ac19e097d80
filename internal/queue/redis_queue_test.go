package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

func newTestTransport(t *testing.T) *RedisTransport {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTransport(client, "jobs-test", zap.NewNop())
}

func sendEnvelope(t *testing.T, transport *RedisTransport, jobID string) Envelope {
	t.Helper()
	env := Envelope{
		JobID:   jobID,
		Type:    domain.JobTypeNotification,
		Payload: json.RawMessage(`{"content":"hi"}`),
	}
	if err := transport.Send(context.Background(), env); err != nil {
		t.Fatalf("send: %v", err)
	}
	return env
}

func TestRedisTransport_SendReceiveDelete(t *testing.T) {
	transport := newTestTransport(t)
	ctx := context.Background()
	sendEnvelope(t, transport, "job-1")

	messages, err := transport.Receive(ctx, 5, time.Second, 30*time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(messages))
	}
	msg := messages[0]
	if msg.Envelope.JobID != "job-1" || msg.Envelope.Type != domain.JobTypeNotification {
		t.Fatalf("envelope = %+v", msg.Envelope)
	}

	if err := transport.Delete(ctx, msg); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Deleted messages are never redelivered, even past the visibility window.
	again, err := transport.Receive(ctx, 5, time.Millisecond, time.Millisecond)
	if err != nil {
		t.Fatalf("receive after delete: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("messages after delete = %d, want 0", len(again))
	}
}

func TestRedisTransport_ReceiveEmpty(t *testing.T) {
	transport := newTestTransport(t)

	messages, err := transport.Receive(context.Background(), 5, time.Second, 30*time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if messages != nil {
		t.Fatalf("messages = %v, want nil on empty queue", messages)
	}
}

func TestRedisTransport_BatchDrainStopsAtMax(t *testing.T) {
	transport := newTestTransport(t)
	ctx := context.Background()
	for _, id := range []string{"job-1", "job-2", "job-3"} {
		sendEnvelope(t, transport, id)
	}

	first, err := transport.Receive(ctx, 2, time.Second, 30*time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first batch = %d, want 2", len(first))
	}
	second, err := transport.Receive(ctx, 2, time.Second, 30*time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("second batch = %d, want the remaining 1", len(second))
	}

	seen := map[string]bool{}
	for _, msg := range append(first, second...) {
		seen[msg.Envelope.JobID] = true
	}
	for _, id := range []string{"job-1", "job-2", "job-3"} {
		if !seen[id] {
			t.Fatalf("job %s was never delivered", id)
		}
	}
}

func TestRedisTransport_InflightHiddenUntilVisibilityExpires(t *testing.T) {
	transport := newTestTransport(t)
	ctx := context.Background()
	sendEnvelope(t, transport, "job-1")

	messages, err := transport.Receive(ctx, 1, time.Second, 50*time.Millisecond)
	if err != nil || len(messages) != 1 {
		t.Fatalf("receive = %v, %v", messages, err)
	}

	// Still within the visibility window: nothing to deliver.
	hidden, err := transport.Receive(ctx, 1, time.Millisecond, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("receive while hidden: %v", err)
	}
	if len(hidden) != 0 {
		t.Fatal("in-flight message redelivered before its visibility expired")
	}

	time.Sleep(80 * time.Millisecond)

	redelivered, err := transport.Receive(ctx, 1, time.Second, 30*time.Second)
	if err != nil {
		t.Fatalf("receive after expiry: %v", err)
	}
	if len(redelivered) != 1 || redelivered[0].Envelope.JobID != "job-1" {
		t.Fatalf("redelivered = %+v, want job-1 back", redelivered)
	}
}

func TestRedisTransport_VisibilityClockStartsAtDelivery(t *testing.T) {
	transport := newTestTransport(t)
	ctx := context.Background()

	// The message arrives well after the consumer started waiting, and the
	// wait exceeds the visibility timeout. The visibility window must still
	// be intact when the message is handed over.
	type received struct {
		messages []Message
		err      error
	}
	done := make(chan received, 1)
	go func() {
		messages, err := transport.Receive(ctx, 1, 2*time.Second, 300*time.Millisecond)
		done <- received{messages: messages, err: err}
	}()

	time.Sleep(500 * time.Millisecond)
	sendEnvelope(t, transport, "job-1")

	res := <-done
	if res.err != nil {
		t.Fatalf("receive: %v", res.err)
	}
	if len(res.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(res.messages))
	}

	stolen, err := transport.Receive(ctx, 1, time.Millisecond, 300*time.Millisecond)
	if err != nil {
		t.Fatalf("second receive: %v", err)
	}
	if len(stolen) != 0 {
		t.Fatalf("message stolen while in flight: %+v", stolen[0].Envelope)
	}

	// Redelivery still works once the window genuinely elapses.
	time.Sleep(400 * time.Millisecond)
	redelivered, err := transport.Receive(ctx, 1, time.Second, 30*time.Second)
	if err != nil {
		t.Fatalf("receive after expiry: %v", err)
	}
	if len(redelivered) != 1 || redelivered[0].Envelope.JobID != "job-1" {
		t.Fatalf("redelivered = %+v, want job-1 back", redelivered)
	}
}

func TestRedisTransport_MalformedMessageDropped(t *testing.T) {
	transport := newTestTransport(t)
	ctx := context.Background()
	if err := transport.client.LPush(ctx, transport.pending, "not json").Err(); err != nil {
		t.Fatalf("seed malformed message: %v", err)
	}
	sendEnvelope(t, transport, "job-1")

	messages, err := transport.Receive(ctx, 5, time.Second, 30*time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(messages) != 1 || messages[0].Envelope.JobID != "job-1" {
		t.Fatalf("messages = %+v, want only the well-formed one", messages)
	}
}

func TestRedisTransport_PingUnconfigured(t *testing.T) {
	var transport *RedisTransport
	if err := transport.Ping(context.Background()); err == nil {
		t.Fatal("nil transport must fail ping")
	}
}
