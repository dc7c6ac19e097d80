package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisTransport implements Transport on a Redis list plus an in-flight
// sorted set scored by each message's visibility deadline. Expired in-flight
// members are pushed back onto the pending list before every receive, which
// is what makes redelivery (and therefore retry) work.
type RedisTransport struct {
	client   *redis.Client
	pending  string
	inflight string
	logger   *zap.Logger
}

// NewRedisTransport builds a transport over the named queue.
func NewRedisTransport(client *redis.Client, name string, logger *zap.Logger) *RedisTransport {
	return &RedisTransport{
		client:   client,
		pending:  name + ":pending",
		inflight: name + ":inflight",
		logger:   logger,
	}
}

// Ping verifies the transport is reachable.
func (t *RedisTransport) Ping(ctx context.Context) error {
	if t == nil || t.client == nil {
		return errors.New("redis client not configured")
	}
	return t.client.Ping(ctx).Err()
}

// Send publishes an envelope onto the pending list.
func (t *RedisTransport) Send(ctx context.Context, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return t.client.LPush(ctx, t.pending, raw).Err()
}

// Receive reclaims expired in-flight messages, then blocks up to wait for the
// first pending message and drains up to max without further blocking. Each
// returned message is parked in the in-flight set until deleted or expired.
func (t *RedisTransport) Receive(ctx context.Context, max int, wait, visibility time.Duration) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	if err := t.reclaimExpired(ctx); err != nil {
		return nil, err
	}

	var messages []Message

	res, err := t.client.BRPop(ctx, wait, t.pending).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(res) == 2 {
		if msg, ok := t.parkMessage(ctx, res[1], visibility); ok {
			messages = append(messages, msg)
		}
	}

	for len(messages) < max {
		raw, err := t.client.RPop(ctx, t.pending).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return nil, err
		}
		if msg, ok := t.parkMessage(ctx, raw, visibility); ok {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

// Delete removes an acknowledged message from the in-flight set.
func (t *RedisTransport) Delete(ctx context.Context, msg Message) error {
	return t.client.ZRem(ctx, t.inflight, msg.Receipt).Err()
}

// parkMessage hides a popped message in the in-flight set. The visibility
// clock starts here, when the message is actually handed to the consumer;
// time spent blocked in BRPop before it arrived must not erode the window.
func (t *RedisTransport) parkMessage(ctx context.Context, raw string, visibility time.Duration) (Message, bool) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		// A malformed message can never be handled; drop it rather than
		// letting it circulate forever.
		t.logger.Warn("dropping malformed queue message", zap.Error(err))
		return Message{}, false
	}
	deadline := time.Now().Add(visibility)
	if err := t.client.ZAdd(ctx, t.inflight, redis.Z{
		Score:  float64(deadline.UnixMilli()),
		Member: raw,
	}).Err(); err != nil {
		t.logger.Warn("failed to park in-flight message", zap.Error(err))
		// Push it back so it is not lost.
		_ = t.client.RPush(ctx, t.pending, raw).Err()
		return Message{}, false
	}
	return Message{Receipt: raw, Envelope: env}, true
}

func (t *RedisTransport) reclaimExpired(ctx context.Context) error {
	now := time.Now().UnixMilli()
	expired, err := t.client.ZRangeByScore(ctx, t.inflight, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprint(now),
		Count: 100,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	for _, raw := range expired {
		removed, err := t.client.ZRem(ctx, t.inflight, raw).Result()
		if err != nil {
			return err
		}
		// Only the remover requeues; other consumers racing on the same
		// expired member see removed == 0.
		if removed == 0 {
			continue
		}
		if err := t.client.RPush(ctx, t.pending, raw).Err(); err != nil {
			return err
		}
		t.logger.Debug("reclaimed expired in-flight message")
	}
	return nil
}
