package cache

import (
	"context"
	"testing"
	"time"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSetEvict(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStore().WithClock(clock.Now)
	ctx := context.Background()

	e, err := s.Get(ctx, testKey(1))
	require.NoError(t, err)
	assert.Nil(t, e)

	entry := &domain.RecommendationCacheEntry{Key: testKey(1).String()}
	require.NoError(t, s.Set(ctx, testKey(1), entry, time.Hour))

	e, err = s.Get(ctx, testKey(1))
	require.NoError(t, err)
	assert.Same(t, entry, e)

	clock.Advance(time.Hour)
	e, err = s.Get(ctx, testKey(1))
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.Zero(t, s.Len())
}

func TestMemoryStore_InvalidateRequester(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	contest := 1

	require.NoError(t, s.Set(ctx, testKey(1), &domain.RecommendationCacheEntry{}, time.Hour))
	require.NoError(t, s.Set(ctx, domain.RecommendationKey{RequesterID: 1, ContestID: &contest, Mode: domain.ModeTwoWay}, &domain.RecommendationCacheEntry{}, time.Hour))
	require.NoError(t, s.Set(ctx, testKey(11), &domain.RecommendationCacheEntry{}, time.Hour))

	require.NoError(t, s.InvalidateRequester(ctx, 1))
	assert.Equal(t, 1, s.Len())

	e, err := s.Get(ctx, testKey(11))
	require.NoError(t, err)
	assert.NotNil(t, e, "requester 11 must not be affected by invalidating requester 1")
}

func TestMemoryStore_PrunesExpired(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStore().WithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < pruneEvery-1; i++ {
		require.NoError(t, s.Set(ctx, testKey(i), &domain.RecommendationCacheEntry{}, time.Minute))
	}
	clock.Advance(2 * time.Minute)
	require.NoError(t, s.Set(ctx, testKey(1000), &domain.RecommendationCacheEntry{}, time.Hour))
	assert.Equal(t, 1, s.Len())
}

func TestHashExclusions(t *testing.T) {
	assert.Equal(t, "0", HashExclusions(nil))
	assert.Equal(t, HashExclusions([]int{3, 1, 2}), HashExclusions([]int{1, 2, 3, 3}))
	assert.NotEqual(t, HashExclusions([]int{1, 2}), HashExclusions([]int{12}))
	assert.NotEqual(t, "0", HashExclusions([]int{1}))
}
