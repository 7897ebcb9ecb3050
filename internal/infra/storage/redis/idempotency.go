package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"rentdeal/internal/app/middleware"
)

const defaultKeyPrefix = "rentdeal:idemp:"

// IdempotencyStore keeps command results in Redis so retried requests replay
// the original outcome instead of re-running the mutation.
type IdempotencyStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl, prefix: defaultKeyPrefix}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	var rec middleware.IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.prefix+rec.Key, raw, s.ttl).Err()
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
