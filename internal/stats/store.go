package stats

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldSessions   = "sessions_started"
	fieldFinals     = "finals_emitted"
	fieldBatch      = "batch_requests"
	fieldAudioBytes = "audio_bytes"

	keyTTL = 30 * 24 * time.Hour
)

// Store keeps daily usage counters in a redis hash. A nil Store is valid and
// drops every call; counters are off when redis is not configured.
type Store struct {
	redis *redis.Client
}

func NewStore(client *redis.Client) *Store {
	if client == nil {
		return nil
	}
	return &Store{redis: client}
}

func UsageKey(day time.Time) string {
	return "stats:usage:" + day.UTC().Format("2006-01-02")
}

func (s *Store) SessionStarted(ctx context.Context) error {
	return s.incr(ctx, fieldSessions, 1)
}

func (s *Store) FinalEmitted(ctx context.Context) error {
	return s.incr(ctx, fieldFinals, 1)
}

func (s *Store) BatchRequest(ctx context.Context) error {
	return s.incr(ctx, fieldBatch, 1)
}

func (s *Store) AudioBytes(ctx context.Context, n int64) error {
	if n <= 0 {
		return nil
	}
	return s.incr(ctx, fieldAudioBytes, n)
}

func (s *Store) incr(ctx context.Context, field string, n int64) error {
	if s == nil || s.redis == nil {
		return nil
	}
	key := UsageKey(time.Now())
	pipe := s.redis.Pipeline()
	pipe.HIncrBy(ctx, key, field, n)
	pipe.Expire(ctx, key, keyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Snapshot returns the counters recorded for the given day.
func (s *Store) Snapshot(ctx context.Context, day time.Time) (map[string]int64, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	raw, err := s.redis.HGetAll(ctx, UsageKey(day)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}
