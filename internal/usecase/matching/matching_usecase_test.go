package matching

import (
	"context"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/cache"
	"github.com/gdugdh24/teamup-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[int]*domain.Profile
	// leaky ignores every eligibility condition, to prove the engine still
	// enforces them.
	leaky bool
	delay time.Duration

	candidateCalls atomic.Int64
	summaryCalls   atomic.Int64
}

func newFakeProfileRepo(profiles ...*domain.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{profiles: map[int]*domain.Profile{}}
	for _, p := range profiles {
		r.profiles[p.UserID] = p
	}
	return r
}

func (r *fakeProfileRepo) FindEligibleCandidates(_ context.Context, q repository.CandidateQuery) ([]*domain.Profile, error) {
	r.candidateCalls.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Profile
	for _, p := range r.profiles {
		if !r.leaky {
			if !p.Consents.AllowMatching || p.UserID == q.RequesterID || slices.Contains(q.ExcludeIDs, p.UserID) {
				continue
			}
			if !q.IncludeClosed && !p.Matching.OpenToNewTeams {
				continue
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	if !r.leaky && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *fakeProfileRepo) FindOne(_ context.Context, userID int) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeProfileRepo) FindSummaries(_ context.Context, ids []int) (map[int]*domain.CandidateSummary, error) {
	r.summaryCalls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int]*domain.CandidateSummary, len(ids))
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok && p.Consents.AllowMatching {
			out[id] = &domain.CandidateSummary{
				UserID:      id,
				DisplayName: p.DisplayName,
				Headline:    domain.BuildHeadline(p.Matching.PrimaryRole, p.Matching.ExperienceLevel),
			}
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) UpdateMatching(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.UserID]; !ok {
		return domain.ErrProfileNotFound
	}
	r.profiles[p.UserID] = p
	return nil
}

type fakeContestRepo struct {
	contests map[int]*domain.ContestConstraints
}

func (r *fakeContestRepo) FindOne(_ context.Context, id int) (*domain.ContestConstraints, error) {
	if c, ok := r.contests[id]; ok {
		return c, nil
	}
	return nil, domain.ErrContestNotFound
}

func newTestUseCase(repo *fakeProfileRepo, contests ...*domain.ContestConstraints) *MatchingUseCase {
	cr := &fakeContestRepo{contests: map[int]*domain.ContestConstraints{}}
	for _, c := range contests {
		cr.contests[c.ID] = c
	}
	rc := cache.NewRecommendationCache(cache.NewMemoryStore(), cache.DefaultOptions())
	return NewMatchingUseCase(repo, cr, rc, DefaultOptions())
}

func recommendedIDs(res *RecommendResult) []int {
	out := make([]int, len(res.Recommendations))
	for i, r := range res.Recommendations {
		out[i] = r.Candidate.UserID
	}
	return out
}

func population() []*domain.Profile {
	roles := []string{"Backend Dev", "Designer", "Backend Dev", "ML Engineer", "Frontend Dev", "QA", "DevOps", "Backend Dev"}
	out := []*domain.Profile{matchable(1, domain.MatchingProfile{PrimaryRole: "Frontend Dev", Skills: []string{"React", "TS"}, Availability: "weekends"})}
	for i, role := range roles {
		out = append(out, matchable(10+i, domain.MatchingProfile{
			PrimaryRole:  role,
			Skills:       []string{"Go", "React"},
			Availability: "weekends",
		}))
	}
	return out
}

func TestRecommend_NoConsent(t *testing.T) {
	requester := matchable(1, domain.MatchingProfile{PrimaryRole: "Frontend Dev"})
	requester.Consents.AllowMatching = false
	repo := newFakeProfileRepo(append(population()[1:], requester)...)
	uc := newTestUseCase(repo)

	res, err := uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonNoConsent, res.Reason)
	assert.Empty(t, res.Recommendations)
	assert.Zero(t, uc.ScoringPasses())

	res, err = uc.Recommend(context.Background(), RecommendRequest{RequesterID: 404})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonNoConsent, res.Reason)
}

func TestRecommend_AllowRecommendationsDoesNotGate(t *testing.T) {
	profiles := population()
	profiles[0].Consents.AllowRecommendations = false
	profiles[1].Consents.AllowRecommendations = false
	uc := newTestUseCase(newFakeProfileRepo(profiles...))

	res, err := uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonInsufficientCandidates, res.Reason)
	assert.Len(t, res.Recommendations, len(profiles)-1)
	assert.Contains(t, recommendedIDs(res), profiles[1].UserID)
}

func TestRecommend_EmptyPool(t *testing.T) {
	requester := matchable(1, domain.MatchingProfile{PrimaryRole: "Frontend Dev"})
	closed := matchable(2, domain.MatchingProfile{PrimaryRole: "Backend Dev"})
	closed.Matching.OpenToNewTeams = false
	uc := newTestUseCase(newFakeProfileRepo(requester, closed))

	res, err := uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Recommendations)
	assert.NotNil(t, res.Recommendations)
	assert.Equal(t, domain.ReasonInsufficientCandidates, res.Reason)
	assert.Equal(t, int64(1), uc.ScoringPasses())
}

func TestRecommend_FrontendPrefersBackend(t *testing.T) {
	requester := matchable(1, domain.MatchingProfile{PrimaryRole: "Frontend Dev", Skills: []string{"React", "TS"}})
	a := matchable(2, domain.MatchingProfile{PrimaryRole: "Backend Dev", Skills: []string{"Node", "SQL"}})
	b := matchable(3, domain.MatchingProfile{PrimaryRole: "Frontend Dev", Skills: []string{"React", "TS"}})
	uc := newTestUseCase(newFakeProfileRepo(requester, a, b))

	res, err := uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, recommendedIDs(res))
	assert.Equal(t, domain.ReasonOK, res.Reason)
}

func TestRecommend_ExclusionLeavesExactlyN(t *testing.T) {
	requester := matchable(1, domain.MatchingProfile{PrimaryRole: "Frontend Dev"})
	profiles := []*domain.Profile{requester}
	for id := 2; id <= 5; id++ {
		profiles = append(profiles, matchable(id, domain.MatchingProfile{PrimaryRole: "Backend Dev"}))
	}
	uc := newTestUseCase(newFakeProfileRepo(profiles...))

	res, err := uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1, Limit: 3, ExcludeIDs: []int{4}})
	require.NoError(t, err)
	assert.Len(t, res.Recommendations, 3)
	assert.NotContains(t, recommendedIDs(res), 4)
	assert.Equal(t, domain.ReasonOK, res.Reason)
}

func TestRecommend_EnforcesEligibilityEvenIfStoreLeaks(t *testing.T) {
	profiles := population()
	noConsent := matchable(50, domain.MatchingProfile{PrimaryRole: "Designer"})
	noConsent.Consents.AllowMatching = false
	closed := matchable(51, domain.MatchingProfile{PrimaryRole: "Designer"})
	closed.Matching.OpenToNewTeams = false
	repo := newFakeProfileRepo(append(profiles, noConsent, closed)...)
	repo.leaky = true
	uc := newTestUseCase(repo)

	res, err := uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1, Limit: 10, ExcludeIDs: []int{10, 11}})
	require.NoError(t, err)

	got := recommendedIDs(res)
	assert.NotEmpty(t, got)
	for _, banned := range []int{1, 10, 11, 50, 51} {
		assert.NotContains(t, got, banned)
	}
}

func TestRecommend_ClosedProfilesAllowedByContest(t *testing.T) {
	requester := matchable(1, domain.MatchingProfile{PrimaryRole: "Frontend Dev"})
	closed := matchable(2, domain.MatchingProfile{PrimaryRole: "Designer"})
	closed.Matching.OpenToNewTeams = false
	contest := &domain.ContestConstraints{ID: 5, AllowClosedProfiles: true}
	uc := newTestUseCase(newFakeProfileRepo(requester, closed), contest)

	res, err := uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Recommendations)
	assert.Equal(t, domain.ReasonInsufficientCandidates, res.Reason)

	contestID := 5
	res, err = uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1, ContestID: &contestID})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, recommendedIDs(res))
}

func TestRecommend_UnknownContestDegrades(t *testing.T) {
	uc := newTestUseCase(newFakeProfileRepo(population()...))
	missing := 999

	res, err := uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1, ContestID: &missing})
	require.NoError(t, err)
	assert.Len(t, res.Recommendations, 5)

	_, err = uc.ResolveContest(context.Background(), missing)
	assert.ErrorIs(t, err, domain.ErrContestNotFound)
}

func TestRecommend_LimitBounds(t *testing.T) {
	repo := newFakeProfileRepo(population()...)
	uc := newTestUseCase(repo)
	ctx := context.Background()

	res, err := uc.Recommend(ctx, RecommendRequest{RequesterID: 1})
	require.NoError(t, err)
	assert.Len(t, res.Recommendations, 5)

	res, err = uc.Recommend(ctx, RecommendRequest{RequesterID: 1, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, res.Recommendations, 8)
	assert.Equal(t, domain.ReasonInsufficientCandidates, res.Reason)

	seen := map[int]bool{}
	for _, id := range recommendedIDs(res) {
		assert.False(t, seen[id], "duplicate candidate %d", id)
		seen[id] = true
	}
}

func TestRecommend_ShorterLimitIsPrefix(t *testing.T) {
	uc := newTestUseCase(newFakeProfileRepo(population()...))
	ctx := context.Background()

	full, err := uc.Recommend(ctx, RecommendRequest{RequesterID: 1, Limit: 8})
	require.NoError(t, err)
	short, err := uc.Recommend(ctx, RecommendRequest{RequesterID: 1, Limit: 3})
	require.NoError(t, err)

	assert.Equal(t, recommendedIDs(full)[:3], recommendedIDs(short))
	assert.EqualValues(t, 1, uc.ScoringPasses())
}

func TestRecommend_CacheHitSkipsScoring(t *testing.T) {
	repo := newFakeProfileRepo(population()...)
	uc := newTestUseCase(repo)
	ctx := context.Background()

	first, err := uc.Recommend(ctx, RecommendRequest{RequesterID: 1})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.EqualValues(t, 1, uc.ScoringPasses())

	second, err := uc.Recommend(ctx, RecommendRequest{RequesterID: 1})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.EqualValues(t, 1, uc.ScoringPasses())
	assert.EqualValues(t, 1, repo.candidateCalls.Load())

	// A different mode or exclusion set is a different key.
	_, err = uc.Recommend(ctx, RecommendRequest{RequesterID: 1, TwoWay: true})
	require.NoError(t, err)
	_, err = uc.Recommend(ctx, RecommendRequest{RequesterID: 1, ExcludeIDs: []int{10}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, uc.ScoringPasses())

	// Duplicate exclusions collapse onto the same key.
	_, err = uc.Recommend(ctx, RecommendRequest{RequesterID: 1, ExcludeIDs: []int{10, 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, uc.ScoringPasses())
}

func TestRecommend_RefreshForcesNewPass(t *testing.T) {
	uc := newTestUseCase(newFakeProfileRepo(population()...))
	ctx := context.Background()

	first, err := uc.Recommend(ctx, RecommendRequest{RequesterID: 1})
	require.NoError(t, err)
	require.NoError(t, uc.Refresh(ctx, 1))

	second, err := uc.Recommend(ctx, RecommendRequest{RequesterID: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, uc.ScoringPasses())
	assert.False(t, second.Cached)
	assert.Equal(t, recommendedIDs(first), recommendedIDs(second), "same population must give the same order")
}

func TestRecommend_CachedListDropsRevokedConsent(t *testing.T) {
	repo := newFakeProfileRepo(population()...)
	uc := newTestUseCase(repo)
	ctx := context.Background()

	first, err := uc.Recommend(ctx, RecommendRequest{RequesterID: 1})
	require.NoError(t, err)
	require.Len(t, first.Recommendations, 5)
	top := first.Recommendations[0].Candidate.UserID

	revoked, err := repo.FindOne(ctx, top)
	require.NoError(t, err)
	updated := *revoked
	updated.Consents.AllowMatching = false
	require.NoError(t, repo.UpdateMatching(ctx, &updated))
	// Only the candidate's own entries are invalidated; the requester's list stays cached.
	require.NoError(t, uc.Refresh(ctx, top))

	second, err := uc.Recommend(ctx, RecommendRequest{RequesterID: 1})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.EqualValues(t, 1, uc.ScoringPasses())
	assert.NotContains(t, recommendedIDs(second), top)
	assert.Len(t, second.Recommendations, 5)
	assert.Equal(t, recommendedIDs(first)[1:], recommendedIDs(second)[:4])
}

func TestRecommend_ConcurrentMissesShareOnePass(t *testing.T) {
	repo := newFakeProfileRepo(population()...)
	repo.delay = 50 * time.Millisecond
	uc := newTestUseCase(repo)

	const callers = 20
	var wg sync.WaitGroup
	results := make([][]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1})
			if assert.NoError(t, err) {
				results[i] = recommendedIDs(res)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, uc.ScoringPasses())
	for i := 1; i < callers; i++ {
		assert.Equal(t, results[0], results[i])
	}
}

func TestRecommend_TwoWayRequiresReverseScore(t *testing.T) {
	contest := &domain.ContestConstraints{ID: 7, Tags: []string{"ai"}}
	requester := matchable(1, domain.MatchingProfile{})
	oneSided := matchable(2, domain.MatchingProfile{})
	oneSided.ContestPreferences.InterestTags = []string{"ai"}
	mutual := matchable(3, domain.MatchingProfile{PrimaryRole: "Designer"})
	requester.Matching.PrimaryRole = "Frontend Dev"

	uc := newTestUseCase(newFakeProfileRepo(requester, oneSided, mutual), contest)
	ctx := context.Background()
	contestID := 7

	oneWay, err := uc.Recommend(ctx, RecommendRequest{RequesterID: 1, ContestID: &contestID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2, 3}, recommendedIDs(oneWay))

	twoWay, err := uc.Recommend(ctx, RecommendRequest{RequesterID: 1, ContestID: &contestID, TwoWay: true})
	require.NoError(t, err)
	assert.True(t, twoWay.TwoWay)
	assert.Equal(t, []int{3}, recommendedIDs(twoWay))

	for _, id := range recommendedIDs(twoWay) {
		reverse, err := uc.Score(ctx, id, 1, &contestID)
		require.NoError(t, err)
		assert.Greater(t, reverse.MatchScore, DefaultOptions().MutualThreshold)
	}
}

func TestRecommend_HydratesInOneRoundTrip(t *testing.T) {
	repo := newFakeProfileRepo(population()...)
	uc := newTestUseCase(repo)

	res, err := uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1, Limit: 8})
	require.NoError(t, err)
	assert.EqualValues(t, 1, repo.summaryCalls.Load())
	for _, r := range res.Recommendations {
		require.NotNil(t, r.Candidate)
		assert.NotEmpty(t, r.Candidate.Headline)
		assert.Len(t, r.Breakdown, len(domain.Categories))
	}
}

type stubCache struct {
	lookup *cache.Lookup
}

func (c *stubCache) GetOrCompute(context.Context, domain.RecommendationKey, cache.ComputeFunc) (*cache.Lookup, error) {
	return c.lookup, nil
}

func (c *stubCache) InvalidateRequester(context.Context, int) error { return nil }

func TestRecommend_ReasonFromCacheOutcome(t *testing.T) {
	repo := newFakeProfileRepo(population()...)
	tests := []struct {
		outcome cache.Outcome
		want    domain.ReasonCode
		cached  bool
	}{
		{cache.OutcomeTimeout, domain.ReasonTimeout, false},
		{cache.OutcomeStale, domain.ReasonStale, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			stub := &stubCache{lookup: &cache.Lookup{
				Entry:   &domain.RecommendationCacheEntry{Candidates: []domain.RankedCandidate{{CandidateID: 10, TotalScore: 40}}},
				Outcome: tt.outcome,
			}}
			uc := NewMatchingUseCase(repo, &fakeContestRepo{}, stub, DefaultOptions())

			res, err := uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Reason)
			assert.Equal(t, tt.cached, res.Cached)
			assert.Equal(t, []int{10}, recommendedIDs(res))
		})
	}
}

func TestRecommend_StaleListDropsRevokedConsent(t *testing.T) {
	repo := newFakeProfileRepo(population()...)
	repo.profiles[10].Consents.AllowMatching = false
	stub := &stubCache{lookup: &cache.Lookup{
		Entry: &domain.RecommendationCacheEntry{Candidates: []domain.RankedCandidate{
			{CandidateID: 10, TotalScore: 60},
			{CandidateID: 11, TotalScore: 50},
		}},
		Outcome: cache.OutcomeStale,
	}}
	uc := NewMatchingUseCase(repo, &fakeContestRepo{}, stub, DefaultOptions())

	res, err := uc.Recommend(context.Background(), RecommendRequest{RequesterID: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{11}, recommendedIDs(res))
	assert.Equal(t, domain.ReasonStale, res.Reason)
}

func TestScore(t *testing.T) {
	requester := matchable(1, domain.MatchingProfile{PrimaryRole: "Frontend Dev"})
	candidate := matchable(2, domain.MatchingProfile{PrimaryRole: "Backend Dev"})
	hidden := matchable(3, domain.MatchingProfile{PrimaryRole: "Designer"})
	hidden.Consents.AllowMatching = false
	uc := newTestUseCase(newFakeProfileRepo(requester, candidate, hidden))
	ctx := context.Background()

	res, err := uc.Score(ctx, 1, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.CandidateID)
	assert.Equal(t, 25.0, res.MatchScore)
	assert.Equal(t, 25.0, res.Breakdown[domain.CategoryRoleDiversity])

	_, err = uc.Score(ctx, 1, 1, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Score(ctx, 1, 3, nil)
	assert.ErrorIs(t, err, domain.ErrCandidateNotEligible)

	_, err = uc.Score(ctx, 1, 404, nil)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	_, err = uc.Score(ctx, 3, 1, nil)
	assert.ErrorIs(t, err, domain.ErrMatchingConsentRequired)

	assert.Zero(t, uc.ScoringPasses())
}
