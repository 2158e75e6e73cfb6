// Package cache stores computed recommendation lists.
//
// Store is the replaceable persistence contract (memory or redis);
// RecommendationCache layers TTL freshness, per-key single-flight computation
// and requester-wide invalidation on top of any Store.
package cache

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gdugdh24/teamup-backend/internal/domain"
)

// Store persists whole cache entries. Get returns (nil, nil) on a miss and may
// return entries past ExpiresAt while they are within their retention window.
type Store interface {
	Get(ctx context.Context, key domain.RecommendationKey) (*domain.RecommendationCacheEntry, error)
	Set(ctx context.Context, key domain.RecommendationKey, entry *domain.RecommendationCacheEntry, retention time.Duration) error
	InvalidateRequester(ctx context.Context, requesterID int) error
}

// HashExclusions returns an order-insensitive hash of the excluded ids.
// The empty set hashes to "0".
func HashExclusions(ids []int) string {
	if len(ids) == 0 {
		return "0"
	}
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	h := xxhash.New()
	prev := 0
	for i, id := range sorted {
		if i > 0 && id == prev {
			continue
		}
		prev = id
		_, _ = h.WriteString(strconv.Itoa(id))
		_, _ = h.WriteString(",")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
