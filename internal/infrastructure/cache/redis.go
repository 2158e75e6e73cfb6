package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries as JSON strings with a TTL and tracks every key of a
// requester in an index set so invalidation does not need SCAN.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func requesterIndexKey(requesterID int) string {
	return "reco:idx:" + strconv.Itoa(requesterID)
}

func (s *RedisStore) Get(ctx context.Context, key domain.RecommendationKey) (*domain.RecommendationCacheEntry, error) {
	data, err := s.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", key.String(), err)
	}

	var entry domain.RecommendationCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry %s: %w", key.String(), err)
	}
	return &entry, nil
}

func (s *RedisStore) Set(ctx context.Context, key domain.RecommendationKey, entry *domain.RecommendationCacheEntry, retention time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	k := key.String()
	idx := requesterIndexKey(key.RequesterID)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, k, data, retention)
	pipe.SAdd(ctx, idx, k)
	pipe.Expire(ctx, idx, retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

func (s *RedisStore) InvalidateRequester(ctx context.Context, requesterID int) error {
	idx := requesterIndexKey(requesterID)
	keys, err := s.client.SMembers(ctx, idx).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis smembers %s: %w", idx, err)
	}

	if err := s.client.Del(ctx, append(keys, idx)...).Err(); err != nil {
		return fmt.Errorf("redis del requester %d: %w", requesterID, err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
