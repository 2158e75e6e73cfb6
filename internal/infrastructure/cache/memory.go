package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdugdh24/teamup-backend/internal/domain"
)

const pruneEvery = 128

type memoryItem struct {
	requesterID int
	entry       *domain.RecommendationCacheEntry
	evictAt     time.Time
}

// MemoryStore is an in-process Store. Reads and writes on different keys never
// contend on a shared lock.
type MemoryStore struct {
	items sync.Map // string -> memoryItem
	sets  atomic.Int64
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Get(_ context.Context, key domain.RecommendationKey) (*domain.RecommendationCacheEntry, error) {
	k := key.String()
	v, ok := s.items.Load(k)
	if !ok {
		return nil, nil
	}
	item := v.(memoryItem)
	if !s.now().Before(item.evictAt) {
		s.items.CompareAndDelete(k, v)
		return nil, nil
	}
	return item.entry, nil
}

func (s *MemoryStore) Set(_ context.Context, key domain.RecommendationKey, entry *domain.RecommendationCacheEntry, retention time.Duration) error {
	s.items.Store(key.String(), memoryItem{
		requesterID: key.RequesterID,
		entry:       entry,
		evictAt:     s.now().Add(retention),
	})
	if s.sets.Add(1)%pruneEvery == 0 {
		s.prune()
	}
	return nil
}

func (s *MemoryStore) InvalidateRequester(_ context.Context, requesterID int) error {
	s.items.Range(func(k, v any) bool {
		if v.(memoryItem).requesterID == requesterID {
			s.items.Delete(k)
		}
		return true
	})
	return nil
}

// Len counts stored items, including ones awaiting lazy eviction.
func (s *MemoryStore) Len() int {
	n := 0
	s.items.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (s *MemoryStore) prune() {
	now := s.now()
	s.items.Range(func(k, v any) bool {
		if !now.Before(v.(memoryItem).evictAt) {
			s.items.CompareAndDelete(k, v)
		}
		return true
	})
}

var _ Store = (*MemoryStore)(nil)
