package matching

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/cache"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/logging"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/teamup-backend/internal/repository"
)

// Cache is the recommendation cache the engine computes through.
type Cache interface {
	GetOrCompute(ctx context.Context, key domain.RecommendationKey, compute cache.ComputeFunc) (*cache.Lookup, error)
	InvalidateRequester(ctx context.Context, requesterID int) error
}

type MatchingUseCase struct {
	profileRepo repository.ProfileRepository
	contestRepo repository.ContestRepository
	cache       Cache
	opts        Options

	accessor *SnapshotAccessor
	scorer   *Scorer
	gate     *MutualGate
	selector *Selector
	hydrator *Hydrator

	scoringPasses atomic.Int64
}

func NewMatchingUseCase(
	profileRepo repository.ProfileRepository,
	contestRepo repository.ContestRepository,
	recommendationCache Cache,
	opts Options,
) *MatchingUseCase {
	opts = opts.withDefaults()
	scorer := NewScorer(opts.Scoring)
	return &MatchingUseCase{
		profileRepo: profileRepo,
		contestRepo: contestRepo,
		cache:       recommendationCache,
		opts:        opts,
		accessor:    NewSnapshotAccessor(profileRepo, opts.CandidateLimit),
		scorer:      scorer,
		gate:        NewMutualGate(scorer, opts.MutualThreshold),
		selector:    NewSelector(opts.Selection),
		hydrator:    NewHydrator(profileRepo),
	}
}

// RecommendRequest is the input of Recommend. Limit <= 0 means the default.
type RecommendRequest struct {
	RequesterID int
	ContestID   *int
	TwoWay      bool
	Limit       int
	ExcludeIDs  []int
}

type RecommendResult struct {
	Recommendations []Recommendation  `json:"recommendations"`
	Reason          domain.ReasonCode `json:"reason"`
	Cached          bool              `json:"cached"`
	TwoWay          bool              `json:"two_way"`
}

type ScoreResult struct {
	CandidateID int                   `json:"candidate_id"`
	MatchScore  float64               `json:"match_score"`
	Breakdown   domain.ScoreBreakdown `json:"breakdown"`
}

// Recommend returns an ordered, diverse list of teammates for the requester.
// A requester who has not opted into matching gets an empty list with
// ReasonNoConsent and nothing is computed or cached for them.
func (uc *MatchingUseCase) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResult, error) {
	result := &RecommendResult{Recommendations: []Recommendation{}, TwoWay: req.TwoWay}

	requester, err := uc.profileRepo.FindOne(ctx, req.RequesterID)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to get requester profile: %w", err)
	}
	if !requester.CanBeMatched() {
		result.Reason = domain.ReasonNoConsent
		return result, nil
	}

	contest := uc.contestOrNil(ctx, req.ContestID)
	limit := uc.limit(req.Limit)
	exclude := normalizeExclusions(req.ExcludeIDs, req.RequesterID)

	mode := domain.ModeOneWay
	if req.TwoWay {
		mode = domain.ModeTwoWay
	}
	key := domain.RecommendationKey{
		RequesterID:  req.RequesterID,
		ContestID:    req.ContestID,
		Mode:         mode,
		ExcludedHash: cache.HashExclusions(exclude),
	}

	// The cached list is always computed at MaxLimit. Greedy picks only depend
	// on earlier picks, so any shorter limit is a prefix of it.
	lookup, err := uc.cache.GetOrCompute(ctx, key, func(ctx context.Context) ([]domain.RankedCandidate, error) {
		return uc.rank(ctx, requester, contest, exclude, mode)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute recommendations: %w", err)
	}

	// Hydrate the whole cached list before truncating: candidates who revoked
	// consent since it was cached drop out here and the next ones move up.
	recommendations, err := uc.hydrator.Hydrate(ctx, lookup.Entry.Candidates)
	if err != nil {
		return nil, err
	}
	if len(recommendations) > limit {
		recommendations = recommendations[:limit]
	}
	result.Recommendations = recommendations
	result.Cached = lookup.Outcome == cache.OutcomeHit || lookup.Outcome == cache.OutcomeStale

	switch {
	case lookup.Outcome == cache.OutcomeStale:
		result.Reason = domain.ReasonStale
	case lookup.Outcome == cache.OutcomeTimeout:
		result.Reason = domain.ReasonTimeout
	case len(recommendations) < limit:
		result.Reason = domain.ReasonInsufficientCandidates
	default:
		result.Reason = domain.ReasonOK
	}

	logging.Ctx(ctx).Debug().
		Int("requester_id", req.RequesterID).
		Str("mode", string(mode)).
		Str("cache", string(lookup.Outcome)).
		Int("returned", len(recommendations)).
		Msg("recommendations served")

	return result, nil
}

// rank runs one full scoring pass: fetch, score, gate, select.
func (uc *MatchingUseCase) rank(
	ctx context.Context,
	requester *domain.Profile,
	contest *domain.ContestConstraints,
	exclude []int,
	mode domain.Mode,
) ([]domain.RankedCandidate, error) {
	start := time.Now()
	uc.scoringPasses.Add(1)

	candidates, err := uc.accessor.Candidates(ctx, requester.UserID, contest, exclude)
	if err != nil {
		return nil, err
	}

	pool := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		pool = append(pool, ScoredCandidate{Profile: c, Score: uc.scorer.Score(requester, c, contest)})
	}
	if mode == domain.ModeTwoWay {
		pool = uc.gate.Filter(requester, pool, contest)
	}

	selected := uc.selector.Select(requester, pool, uc.opts.MaxLimit, contest)

	ranked := make([]domain.RankedCandidate, len(selected))
	for i, s := range selected {
		ranked[i] = domain.RankedCandidate{
			CandidateID: s.ID(),
			TotalScore:  s.Score.Total,
			Breakdown:   s.Score.Breakdown,
		}
	}

	took := time.Since(start)
	metrics.RecordScoringPass(string(mode), len(candidates), took)
	logging.Ctx(ctx).Debug().
		Int("requester_id", requester.UserID).
		Int("pool", len(candidates)).
		Int("eligible", len(pool)).
		Int("selected", len(ranked)).
		Dur("took", took).
		Msg("scoring pass finished")

	return ranked, nil
}

// Score rates a single candidate against the requester, bypassing the cache.
func (uc *MatchingUseCase) Score(ctx context.Context, requesterID, candidateID int, contestID *int) (*ScoreResult, error) {
	if requesterID == candidateID {
		return nil, fmt.Errorf("%w: cannot score yourself", domain.ErrInvalidInput)
	}

	requester, err := uc.profileRepo.FindOne(ctx, requesterID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, domain.ErrMatchingConsentRequired
		}
		return nil, fmt.Errorf("failed to get requester profile: %w", err)
	}
	if !requester.CanBeMatched() {
		return nil, domain.ErrMatchingConsentRequired
	}

	candidate, err := uc.profileRepo.FindOne(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if !candidate.CanBeMatched() {
		return nil, domain.ErrCandidateNotEligible
	}

	score := uc.scorer.Score(requester, candidate, uc.contestOrNil(ctx, contestID))
	return &ScoreResult{
		CandidateID: candidateID,
		MatchScore:  score.Total,
		Breakdown:   score.Breakdown,
	}, nil
}

// Refresh drops every cached list of the requester. It does not recompute.
func (uc *MatchingUseCase) Refresh(ctx context.Context, requesterID int) error {
	if err := uc.cache.InvalidateRequester(ctx, requesterID); err != nil {
		return fmt.Errorf("failed to invalidate recommendations: %w", err)
	}
	return nil
}

// ResolveContest loads contest constraints. Callers use it to reject unknown
// contest ids up front; the engine itself treats them as "no contest".
func (uc *MatchingUseCase) ResolveContest(ctx context.Context, contestID int) (*domain.ContestConstraints, error) {
	return uc.contestRepo.FindOne(ctx, contestID)
}

// ScoringPasses reports how many full scoring passes have run.
func (uc *MatchingUseCase) ScoringPasses() int64 {
	return uc.scoringPasses.Load()
}

func (uc *MatchingUseCase) contestOrNil(ctx context.Context, contestID *int) *domain.ContestConstraints {
	if contestID == nil {
		return nil
	}
	contest, err := uc.contestRepo.FindOne(ctx, *contestID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("contest_id", *contestID).Msg("contest unresolved, matching without contest scope")
		return nil
	}
	return contest
}

func (uc *MatchingUseCase) limit(requested int) int {
	switch {
	case requested <= 0:
		return uc.opts.DefaultLimit
	case requested > uc.opts.MaxLimit:
		return uc.opts.MaxLimit
	default:
		return requested
	}
}

// normalizeExclusions sorts and dedupes ids so equal sets hash to the same key.
func normalizeExclusions(ids []int, requesterID int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id > 0 && id != requesterID {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
