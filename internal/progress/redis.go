// Package progress publishes import progress to Redis so that other
// processes (a second API replica, an admin dashboard) can follow a run.
//
// Each snapshot is stored under import:progress:{id} with a TTL and
// published as JSON on the import:progress channel.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/academia/internal/core"
)

const (
	keyPrefix = "import:progress:"

	// Channel carries every snapshot of every run.
	Channel = "import:progress"

	// DefaultTTL is how long a snapshot outlives its last update.
	DefaultTTL = time.Hour
)

// RedisSink implements core.ProgressSink.
type RedisSink struct {
	client *redis.Client
	ttl    time.Duration
}

var _ core.ProgressSink = (*RedisSink)(nil)

// NewRedisSink wraps an existing client.
func NewRedisSink(client *redis.Client, ttl time.Duration) *RedisSink {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisSink{client: client, ttl: ttl}
}

// Connect parses a redis:// URL, checks the connection and returns a sink.
func Connect(ctx context.Context, redisURL string, ttl time.Duration) (*RedisSink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewRedisSink(client, ttl), nil
}

func key(jobID uuid.UUID) string {
	return keyPrefix + jobID.String()
}

// Publish stores p as the run's latest snapshot and announces it.
func (s *RedisSink) Publish(ctx context.Context, p core.ImportProgress) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	k := key(p.JobID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, map[string]any{
		"phase":       string(p.Phase),
		"import_type": string(p.Kind),
		"total":       p.Total,
		"current":     p.Current,
		"successful":  p.Successful,
		"failed":      p.Failed,
		"error":       p.Error,
	})
	pipe.Expire(ctx, k, s.ttl)
	pipe.Publish(ctx, Channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish progress: %w", err)
	}
	return nil
}

// Snapshot returns the latest stored snapshot of a run. ok is false when
// none exists or it has expired.
func (s *RedisSink) Snapshot(ctx context.Context, jobID uuid.UUID) (core.ImportProgress, bool, error) {
	var h struct {
		Phase      string `redis:"phase"`
		Kind       string `redis:"import_type"`
		Total      int    `redis:"total"`
		Current    int    `redis:"current"`
		Successful int    `redis:"successful"`
		Failed     int    `redis:"failed"`
		Error      string `redis:"error"`
	}

	res := s.client.HGetAll(ctx, key(jobID))
	if err := res.Err(); err != nil && !errors.Is(err, redis.Nil) {
		return core.ImportProgress{}, false, fmt.Errorf("read progress: %w", err)
	}
	if len(res.Val()) == 0 {
		return core.ImportProgress{}, false, nil
	}
	if err := res.Scan(&h); err != nil {
		return core.ImportProgress{}, false, fmt.Errorf("decode progress: %w", err)
	}

	return core.ImportProgress{
		JobID:      jobID,
		Kind:       core.ImportKind(h.Kind),
		Phase:      core.ImportPhase(h.Phase),
		Total:      h.Total,
		Current:    h.Current,
		Successful: h.Successful,
		Failed:     h.Failed,
		Error:      h.Error,
	}, true, nil
}

// Subscribe follows the progress channel until ctx is done. Only snapshots
// of jobID are delivered.
func (s *RedisSink) Subscribe(ctx context.Context, jobID uuid.UUID) (<-chan core.ImportProgress, error) {
	sub := s.client.Subscribe(ctx, Channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe progress: %w", err)
	}

	out := make(chan core.ImportProgress, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var p core.ImportProgress
				if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil || p.JobID != jobID {
					continue
				}
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
				if p.Done() {
					return
				}
			}
		}
	}()
	return out, nil
}

// Close closes the underlying client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
