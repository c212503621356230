package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StreamPrefix is the per-client stream name prefix. One Redis stream per
// client keeps the ordered-append-per-client contract: entries for one
// client are strictly ordered, entries across clients are not.
const StreamPrefix = "framebot_journal:"

// RedisWriter publishes journal entries to per-client Redis streams so an
// external training consumer can tail them. Delivery is at-least-once: a
// failed XADD is retried once before the error is surfaced.
type RedisWriter struct {
	client *redis.Client
	ctx    context.Context
	maxLen int64
}

// ConnectRedis creates a Redis client from a URL.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedisWriter wraps a Redis client. maxLen caps each client stream
// (approximate trimming); zero means unbounded.
func NewRedisWriter(ctx context.Context, client *redis.Client, maxLen int64) *RedisWriter {
	return &RedisWriter{client: client, ctx: ctx, maxLen: maxLen}
}

func (w *RedisWriter) Append(e *Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: StreamPrefix + e.ClientID.String(),
		MaxLen: w.maxLen,
		Approx: true,
		Values: map[string]any{
			"id":         e.ID.String(),
			"frame_id":   e.FrameID.String(),
			"episode_id": e.EpisodeID.String(),
			"reward":     e.Reward,
			"payload":    string(payload),
		},
	}
	if err := w.client.XAdd(w.ctx, args).Err(); err != nil {
		// One retry keeps transient connection blips from dropping entries.
		if err2 := w.client.XAdd(w.ctx, args).Err(); err2 != nil {
			return fmt.Errorf("publish journal entry %s: %w", e.ID, err2)
		}
	}
	return nil
}

func (w *RedisWriter) Flush() error { return nil }

func (w *RedisWriter) Close() error { return w.client.Close() }

// StreamLen reports the pending length of one client's stream.
func (w *RedisWriter) StreamLen(clientID string) (int64, error) {
	n, err := w.client.XLen(w.ctx, StreamPrefix+clientID).Result()
	if err != nil {
		return 0, fmt.Errorf("stream length for %s: %w", clientID, err)
	}
	return n, nil
}
