package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/logging"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/metrics"
	"golang.org/x/sync/singleflight"
)

type Outcome string

const (
	OutcomeHit     Outcome = "hit"
	OutcomeMiss    Outcome = "miss"
	OutcomeStale   Outcome = "stale"
	OutcomeTimeout Outcome = "timeout"
)

// ComputeFunc produces a fresh ordered recommendation list.
type ComputeFunc func(ctx context.Context) ([]domain.RankedCandidate, error)

type Lookup struct {
	Entry   *domain.RecommendationCacheEntry
	Outcome Outcome
}

type Options struct {
	TTL time.Duration
	// StaleGrace keeps expired entries around as a fallback for slow recomputation.
	StaleGrace time.Duration
	// WaitTimeout bounds how long a caller waits on a shared computation.
	WaitTimeout time.Duration
	// ComputeDeadline bounds the shared computation itself.
	ComputeDeadline time.Duration
}

func DefaultOptions() Options {
	return Options{
		TTL:             6 * time.Hour,
		StaleGrace:      time.Hour,
		WaitTimeout:     5 * time.Second,
		ComputeDeadline: 30 * time.Second,
	}
}

// RecommendationCache serves fresh entries from a Store and funnels concurrent
// misses on one key into a single computation.
type RecommendationCache struct {
	store Store
	opts  Options
	group singleflight.Group
	now   func() time.Time

	// requesters tracks only requesters with a computation in flight. Their
	// generation moves to a new seq value on invalidation so computations
	// started earlier neither get joined nor get stored; the state is dropped
	// with the last flight. seq only grows, so generations are never reused.
	mu         sync.Mutex
	seq        uint64
	requesters map[int]*requesterState
}

type requesterState struct {
	generation uint64
	flights    int
}

func NewRecommendationCache(store Store, opts Options) *RecommendationCache {
	def := DefaultOptions()
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}
	if opts.StaleGrace < 0 {
		opts.StaleGrace = 0
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = def.WaitTimeout
	}
	if opts.ComputeDeadline < opts.WaitTimeout {
		opts.ComputeDeadline = opts.WaitTimeout
	}
	return &RecommendationCache{
		store:      store,
		opts:       opts,
		now:        time.Now,
		requesters: make(map[int]*requesterState),
	}
}

// WithClock overrides the time source, for tests.
func (c *RecommendationCache) WithClock(now func() time.Time) *RecommendationCache {
	c.now = now
	return c
}

// generation returns the current generation; requesters without a flight are at seq.
func (c *RecommendationCache) generation(requesterID int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.requesters[requesterID]; ok {
		return st.generation
	}
	return c.seq
}

func (c *RecommendationCache) beginFlight(requesterID int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.requesters[requesterID]
	if !ok {
		st = &requesterState{generation: c.seq}
		c.requesters[requesterID] = st
	}
	st.flights++
	return st.generation
}

func (c *RecommendationCache) endFlight(requesterID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.requesters[requesterID]
	if !ok {
		return
	}
	if st.flights--; st.flights <= 0 {
		delete(c.requesters, requesterID)
	}
}

// trackedRequesters reports how many requesters currently hold flight state.
func (c *RecommendationCache) trackedRequesters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requesters)
}

// GetOrCompute returns the fresh entry for key, or computes it once for all
// concurrent callers. A caller that gives up waiting does not cancel the
// computation; it gets the last stored entry if there is one.
func (c *RecommendationCache) GetOrCompute(ctx context.Context, key domain.RecommendationKey, compute ComputeFunc) (*Lookup, error) {
	log := logging.Ctx(ctx)

	previous, err := c.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("cache read failed, recomputing")
		previous = nil
	}
	if previous.Fresh(c.now()) {
		metrics.CacheLookups.WithLabelValues(string(OutcomeHit)).Inc()
		return &Lookup{Entry: previous, Outcome: OutcomeHit}, nil
	}

	flightKey := key.String() + "#" + strconv.FormatUint(c.generation(key.RequesterID), 10)

	ch := c.group.DoChan(flightKey, func() (any, error) {
		startGen := c.beginFlight(key.RequesterID)
		defer c.endFlight(key.RequesterID)

		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.ComputeDeadline)
		defer cancel()

		candidates, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		now := c.now()
		entry := &domain.RecommendationCacheEntry{
			Key:        key.String(),
			Candidates: candidates,
			CreatedAt:  now,
			ExpiresAt:  now.Add(c.opts.TTL),
		}
		if c.generation(key.RequesterID) != startGen {
			logging.Ctx(cctx).Debug().Str("key", key.String()).Msg("requester invalidated during computation, result not stored")
			return entry, nil
		}
		if err := c.store.Set(cctx, key, entry, c.opts.TTL+c.opts.StaleGrace); err != nil {
			logging.Ctx(cctx).Warn().Err(err).Str("key", key.String()).Msg("cache write failed")
		}
		return entry, nil
	})

	timer := time.NewTimer(c.opts.WaitTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			if previous != nil {
				log.Warn().Err(res.Err).Str("key", key.String()).Msg("recomputation failed, serving stale entry")
				metrics.CacheLookups.WithLabelValues(string(OutcomeStale)).Inc()
				return &Lookup{Entry: previous, Outcome: OutcomeStale}, nil
			}
			return nil, res.Err
		}
		metrics.CacheLookups.WithLabelValues(string(OutcomeMiss)).Inc()
		return &Lookup{Entry: res.Val.(*domain.RecommendationCacheEntry), Outcome: OutcomeMiss}, nil

	case <-timer.C:
		if previous != nil {
			metrics.CacheLookups.WithLabelValues(string(OutcomeStale)).Inc()
			return &Lookup{Entry: previous, Outcome: OutcomeStale}, nil
		}
		metrics.CacheLookups.WithLabelValues(string(OutcomeTimeout)).Inc()
		now := c.now()
		return &Lookup{
			Entry:   &domain.RecommendationCacheEntry{Key: key.String(), Candidates: []domain.RankedCandidate{}, CreatedAt: now, ExpiresAt: now},
			Outcome: OutcomeTimeout,
		}, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InvalidateRequester drops every entry whose requester is requesterID, across
// all contest, mode and exclusion variants.
func (c *RecommendationCache) InvalidateRequester(ctx context.Context, requesterID int) error {
	c.mu.Lock()
	c.seq++
	if st, ok := c.requesters[requesterID]; ok {
		st.generation = c.seq
	}
	c.mu.Unlock()
	metrics.CacheInvalidations.Inc()
	return c.store.InvalidateRequester(ctx, requesterID)
}
