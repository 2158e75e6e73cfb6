package matching

import (
	"context"
	"fmt"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/gdugdh24/teamup-backend/internal/repository"
)

// Recommendation is one display-ready entry of a recommendation list.
type Recommendation struct {
	Candidate  *domain.CandidateSummary `json:"candidate"`
	MatchScore float64                  `json:"match_score"`
	Breakdown  domain.ScoreBreakdown    `json:"breakdown"`
}

// Hydrator resolves ranked candidate ids to summaries with one batched lookup.
type Hydrator struct {
	profileRepo repository.ProfileRepository
}

func NewHydrator(profileRepo repository.ProfileRepository) *Hydrator {
	return &Hydrator{profileRepo: profileRepo}
}

// Hydrate keeps the input order. Candidates whose summary can no longer be
// resolved, e.g. deleted since the list was cached, are dropped.
func (h *Hydrator) Hydrate(ctx context.Context, ranked []domain.RankedCandidate) ([]Recommendation, error) {
	if len(ranked) == 0 {
		return []Recommendation{}, nil
	}

	ids := make([]int, len(ranked))
	for i, r := range ranked {
		ids[i] = r.CandidateID
	}

	summaries, err := h.profileRepo.FindSummaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate summaries: %w", err)
	}

	out := make([]Recommendation, 0, len(ranked))
	for _, r := range ranked {
		summary, ok := summaries[r.CandidateID]
		if !ok || summary == nil {
			continue
		}
		out = append(out, Recommendation{
			Candidate:  summary,
			MatchScore: r.TotalScore,
			Breakdown:  r.Breakdown,
		})
	}
	return out, nil
}
