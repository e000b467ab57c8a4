package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"onboard/internal/wizard/models"
	"onboard/pkg/platform/sentinel"
)

const snapshotKeyPrefix = "onb:snap:"

// DefaultTTL bounds how long a cached snapshot can outlive its last write.
// The cache is a convenience tier; the remote store is the durable one.
const DefaultTTL = 24 * time.Hour

// RedisStore is the Redis-backed snapshot cache shared across service
// instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisStoreOption configures a RedisStore instance.
type RedisStoreOption func(*RedisStore)

// WithTTL overrides the cache entry TTL.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func snapshotKey(employeeID string, stepID models.StepID) string {
	return fmt.Sprintf("%s%s:%s", snapshotKeyPrefix, employeeID, stepID)
}

func (s *RedisStore) Get(ctx context.Context, employeeID string, stepID models.StepID) (*models.FormSnapshot, error) {
	raw, err := s.client.Get(ctx, snapshotKey(employeeID, stepID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached snapshot: %w", err)
	}
	var snapshot models.FormSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		// A value we cannot decode is as good as no value; the caller logs
		// and reconciles from remote.
		return nil, sentinel.ErrMalformed
	}
	return &snapshot, nil
}

func (s *RedisStore) Put(ctx context.Context, snapshot models.FormSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	key := snapshotKey(snapshot.EmployeeID, snapshot.StepID)
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("put cached snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, employeeID string, stepID models.StepID) error {
	if err := s.client.Del(ctx, snapshotKey(employeeID, stepID)).Err(); err != nil {
		return fmt.Errorf("delete cached snapshot: %w", err)
	}
	return nil
}
